// Package analytics derives statistics, grouped counts and filtered views from
// a full ticket set. Every function is pure and accepts an empty slice.
package analytics
