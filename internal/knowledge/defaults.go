package knowledge

import "github.com/spec-kit/helpdesk-service/internal/domain"

// DefaultCatalog is the seed written to a fresh knowledge base file.
func DefaultCatalog() Catalog {
	return Catalog{
		string(domain.CategorySoftware): {
			{Title: "Application Won't Launch", Solution: "Try restarting the application, clearing cache, or reinstalling"},
			{Title: "Software Update Issues", Solution: "Check internet connection, verify admin rights, restart update service"},
		},
		string(domain.CategoryHardware): {
			{Title: "Computer Won't Turn On", Solution: "Check power cable, try different outlet, inspect power button"},
			{Title: "Printer Not Working", Solution: "Check connections, restart printer, update drivers, check ink/toner"},
		},
		string(domain.CategoryNetwork): {
			{Title: "No Internet Connection", Solution: "Restart router, check cables, run network diagnostics, verify Wi-Fi password"},
			{Title: "Slow Network Speed", Solution: "Check bandwidth usage, restart network equipment, scan for malware"},
		},
		string(domain.CategoryLoginAccess): {
			{Title: "Forgot Password", Solution: "Use password reset link, contact IT admin, verify identity"},
			{Title: "Account Locked", Solution: "Wait 30 minutes for auto-unlock or contact IT security team"},
		},
	}
}
