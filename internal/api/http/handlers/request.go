package handlers

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/ticket-workflow/internal/auth"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

var validate = apperrors.NewValidator()

// bind parses the JSON body into req and runs its validation tags.
func bind(c *fiber.Ctx, v *validator.Validate, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("Invalid input", map[string]any{
			"non_field_errors": []string{"Malformed request body."},
		})
	}
	if err := v.Struct(req); err != nil {
		return apperrors.NewValidationError("Invalid input", apperrors.FormatValidationError(err))
	}
	return nil
}

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor(), nil
}

// pathID returns the :id parameter. Anything that is not a UUID cannot name a
// stored row, so it is reported as missing.
func pathID(c *fiber.Ctx, resource string) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return id, nil
}

// page reads page/page_size (1-based) into a limit and offset.
func page(c *fiber.Ctx) (int, int, error) {
	pageNum, err := positiveInt(c.Query("page"), 1)
	if err != nil {
		return 0, 0, apperrors.NewValidationError("Invalid input", map[string]any{"page": []string{"A valid integer is required."}})
	}
	size, err := positiveInt(c.Query("page_size"), 0)
	if err != nil {
		return 0, 0, apperrors.NewValidationError("Invalid input", map[string]any{"page_size": []string{"A valid integer is required."}})
	}
	limit, _ := repository.TicketFilter{Limit: size}.Page()
	return limit, (pageNum - 1) * limit, nil
}

func positiveInt(val string, def int) (int, error) {
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, strconv.ErrSyntax
	}
	return parsed, nil
}

// ticketFilter builds a filter from query parameters. Unknown enum values
// and malformed timestamps are rejected rather than ignored.
func ticketFilter(c *fiber.Ctx) (repository.TicketFilter, error) {
	var filter repository.TicketFilter
	details := map[string]any{}

	if raw := c.Query("status"); raw != "" {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			details["status"] = []string{"Select a valid choice."}
		}
		filter.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := domain.TicketPriority(raw)
		if !priority.Valid() {
			details["priority"] = []string{"Select a valid choice."}
		}
		filter.Priority = &priority
	}
	if raw := c.Query("assigned_to"); raw != "" {
		filter.AssignedTo = &raw
	}
	if raw := c.Query("created_by"); raw != "" {
		filter.CreatedBy = &raw
	}
	for key, dst := range map[string]**time.Time{
		"created_from": &filter.CreatedFrom,
		"created_to":   &filter.CreatedTo,
	} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			details[key] = []string{"Enter a valid date/time."}
			continue
		}
		*dst = &ts
	}
	if len(details) > 0 {
		return filter, apperrors.NewValidationError("Invalid input", details)
	}

	limit, offset, err := page(c)
	if err != nil {
		return filter, err
	}
	filter.Limit, filter.Offset = limit, offset
	return filter, nil
}
