package handlers

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prismlearn/mentor_platform/services"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrValidation, fiber.StatusBadRequest},
		{fmt.Errorf("%w: mentor", services.ErrNotFound), fiber.StatusNotFound},
		{services.ErrForbidden, fiber.StatusForbidden},
		{services.ErrSlotConflict, fiber.StatusConflict},
		{services.ErrDuplicateReview, fiber.StatusConflict},
		{services.ErrInvalidTransition, fiber.StatusBadRequest},
		{services.ErrInvalidState, fiber.StatusBadRequest},
		{errors.New("pq: connection reset"), fiber.StatusInternalServerError},
	}

	for i, tc := range cases {
		app := fiber.New()
		err := tc.err
		app.Get("/err", func(c *fiber.Ctx) error {
			return domainError(c, err)
		})

		resp, reqErr := app.Test(httptest.NewRequest("GET", "/err", nil))
		require.NoError(t, reqErr)
		require.Equal(t, tc.status, resp.StatusCode, "case %d: %v", i, tc.err)
	}
}
