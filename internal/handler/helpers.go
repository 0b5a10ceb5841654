package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/internal/middleware"
)

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.PaginationParams{Page: 1, PageSize: domain.DefaultPageSize}

	if page := c.QueryInt("page", 1); page > 0 {
		params.Page = page
	}
	if pageSize := c.QueryInt("page_size", 20); pageSize > 0 {
		params.PageSize = pageSize
	}

	params.Validate()
	return params
}

func paramID(c *fiber.Ctx, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.BadRequest(fmt.Sprintf("Invalid %s ID", label))
	}
	return id, nil
}

// decodeStrict parses a JSON body and rejects fields the target type does not declare.
func decodeStrict(c *fiber.Ctx, out any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()

	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return middleware.BadRequest("Request body is required")
		}
		return middleware.BadRequest(fmt.Sprintf("Invalid request body: %v", err))
	}
	if dec.More() {
		return middleware.BadRequest("Invalid request body: trailing data")
	}
	return nil
}
