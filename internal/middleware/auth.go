package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
)

// MinAPIKeyLength is the minimum required length for API keys
const MinAPIKeyLength = 32

// ValidateAPIKey checks if an API key meets the security requirements
func ValidateAPIKey(key string) bool {
	if len(key) < MinAPIKeyLength {
		return false
	}
	return strings.TrimSpace(key) != ""
}

// APIKeyAuth requires one of apiKeys on every request, via X-API-Key or
// Authorization (optionally "Bearer "-prefixed). With no keys configured
// all requests pass.
func APIKeyAuth(logger *logging.Logger, apiKeys []string) fiber.Handler {
	if len(apiKeys) == 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	keyMap := make(map[string]bool, len(apiKeys))
	for _, key := range apiKeys {
		if !ValidateAPIKey(key) {
			logger.Warn("API key does not meet security requirements",
				"key_length", len(key),
				"min_required", MinAPIKeyLength,
				"key_prefix", maskAPIKey(key),
			)
			continue
		}
		keyMap[key] = true
	}

	if len(keyMap) == 0 {
		logger.Error("No valid API keys configured - all requests will be rejected",
			"total_keys", len(apiKeys),
			"min_required_length", MinAPIKeyLength,
		)
	}

	return func(c *fiber.Ctx) error {
		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			auth := c.Get("Authorization")
			if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
				apiKey = after
			} else {
				apiKey = auth
			}
		}

		if apiKey == "" || !keyMap[apiKey] {
			message := "Invalid API key."
			if apiKey == "" {
				message = "API key is required. Provide it via X-API-Key header or Authorization header."
			}
			logger.Warn("Rejected request",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
				"api_key_prefix", maskAPIKey(apiKey),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "UNAUTHORIZED",
					Message: message,
				},
			})
		}

		return c.Next()
	}
}

// maskAPIKey masks API key for logging (show only first 4 chars)
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
