package httpserver

import echoSwagger "github.com/swaggo/echo-swagger"

// @title Contact Book API
// @version 1.0
// @description Stores contacts identified by id or by first and last name.
// @BasePath /

func (s *Server) RegisterSwaggerRoutes() {
	s.Router.GET("/swagger/*", echoSwagger.EchoWrapHandler(
		echoSwagger.DocExpansion("list"),
		echoSwagger.DeepLinking(true),
	))
}
