package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func decodeParam(c *fiber.Ctx, name string) (string, error) {
	val, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", apperrors.NewValidationError("invalid "+name, map[string]any{"field": name})
	}
	return val, nil
}
