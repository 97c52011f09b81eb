package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/san-kum/popdyn/internal/dynamo"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), errorBody{Error: err.Error(), Kind: errorKind(err)})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, dynamo.ErrExpression):
		return "expression"
	case errors.Is(err, dynamo.ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, dynamo.ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, dynamo.ErrIntegrationFailure):
		return "integration_failure"
	case errors.Is(err, dynamo.ErrFitFailure):
		return "fit_failure"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "internal"
}

func statusFor(err error) int {
	switch errorKind(err) {
	case "expression", "invalid_parameters":
		return http.StatusBadRequest
	case "unknown_model":
		return http.StatusNotFound
	case "integration_failure", "fit_failure":
		return http.StatusUnprocessableEntity
	case "timeout":
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
