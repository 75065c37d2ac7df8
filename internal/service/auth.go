package service

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("auth")

// ActorHeader carries the authenticated user id, set by the reverse proxy
// after it has done the actual authentication. This service only lifts it
// into the request; authorization happens in the usecases.
const ActorHeader = "X-Actor-Id"

const ActorContextKey = "actor"

type ActorService struct{}

func NewActorService() *ActorService {
	return &ActorService{}
}

// Identify is echo middleware that extracts the acting user from the request
// headers. An absent header yields an empty actor, which the usecases reject
// on mutating operations.
func (s *ActorService) Identify() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "Actor.Service.Identify")
			c.Set(ActorContextKey, c.Request().Header.Get(ActorHeader))
			c.SetRequest(c.Request().WithContext(ctx))
			span.End()
			return next(c)
		}
	}
}

// ActorOf returns the acting user id for the request, or "" when anonymous.
func ActorOf(c echo.Context) string {
	actor, _ := c.Get(ActorContextKey).(string)
	return actor
}
