// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
)

// ListComponents returns the registered component types with their schemas,
// the palette the visual editor renders from.
func ListComponents(registry *components.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		types := registry.AvailableTypes()
		schemas := make(map[string]*components.ComponentSchema, len(types))
		for _, t := range types {
			schema, err := registry.SchemaFor(t)
			if err != nil {
				continue
			}
			schemas[t] = schema
		}
		c.JSON(http.StatusOK, gin.H{"components": schemas, "types": types})
	}
}

// GetComponentSchema returns the schema of one component type.
func GetComponentSchema(registry *components.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		componentType := c.Param("type")
		schema, err := registry.SchemaFor(componentType)
		if err != nil {
			if errors.Is(err, components.ErrUnknownComponentType) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Unknown component type: " + componentType})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"type": componentType, "schema": schema})
	}
}
