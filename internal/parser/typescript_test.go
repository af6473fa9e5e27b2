package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/manifest"
)

func parseTS(t *testing.T, content string) *ParseResult {
	t.Helper()
	result, err := newTypeScriptParser().Parse(context.Background(), []byte(content), "math.ts")
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestTypeScriptParser_ExportedFunction(t *testing.T) {
	result := parseTS(t, `export function add(a: number, b: number): number {
  return a + b;
}
`)

	require.Len(t, result.Symbols, 1)
	fn := result.Symbols[0]
	assert.Equal(t, "math.ts:add", fn.ID)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, manifest.KindFunction, fn.Kind)
	assert.True(t, fn.Exported)
	assert.Equal(t, "number", fn.ReturnType)

	require.Len(t, fn.Parameters, 2)
	assert.Equal(t, "a", fn.Parameters[0].Name)
	assert.Equal(t, "number", fn.Parameters[0].Type)
	assert.Equal(t, "b", fn.Parameters[1].Name)
	assert.Equal(t, "number", fn.Parameters[1].Type)

	require.Len(t, result.Exports, 1)
	assert.Equal(t, "add", result.Exports[0].Name)
	assert.Equal(t, "math.ts:add", result.Exports[0].SymbolID)
	assert.False(t, result.Exports[0].Default)
}

func TestTypeScriptParser_Imports(t *testing.T) {
	result := parseTS(t, `import { add, sub as subtract } from './math';
import type { Config } from './config';
import * as utils from './utils';
import React from 'react';
`)

	require.Len(t, result.Imports, 4)

	named := result.Imports[0]
	assert.Equal(t, "./math", named.Source)
	assert.False(t, named.TypeOnly)
	require.Len(t, named.Specifiers, 2)
	assert.Equal(t, "add", named.Specifiers[0].Name)
	assert.Equal(t, "sub", named.Specifiers[1].Name)
	assert.Equal(t, "subtract", named.Specifiers[1].Alias)

	typed := result.Imports[1]
	assert.Equal(t, "./config", typed.Source)
	assert.True(t, typed.TypeOnly)

	ns := result.Imports[2]
	require.Len(t, ns.Specifiers, 1)
	assert.Equal(t, "utils", ns.Specifiers[0].Name)
	assert.True(t, ns.Specifiers[0].Namespace)

	def := result.Imports[3]
	require.Len(t, def.Specifiers, 1)
	assert.Equal(t, "React", def.Specifiers[0].Name)
	assert.True(t, def.Specifiers[0].Default)
}

func TestTypeScriptParser_InterfaceAndTypeAlias(t *testing.T) {
	result := parseTS(t, `export interface Shape {
  area(): number;
  name: string;
}

export type Point = { x: number; y: number };
`)

	var iface, area, name, alias *manifest.Symbol
	for i := range result.Symbols {
		switch result.Symbols[i].ID {
		case "math.ts:Shape":
			iface = &result.Symbols[i]
		case "math.ts:Shape.area":
			area = &result.Symbols[i]
		case "math.ts:Shape.name":
			name = &result.Symbols[i]
		case "math.ts:Point":
			alias = &result.Symbols[i]
		}
	}

	require.NotNil(t, iface)
	assert.Equal(t, manifest.KindInterface, iface.Kind)
	assert.True(t, iface.Exported)

	require.NotNil(t, area)
	assert.Equal(t, manifest.KindMethod, area.Kind)
	assert.Equal(t, "number", area.ReturnType)

	require.NotNil(t, name)
	assert.Equal(t, manifest.KindProperty, name.Kind)
	assert.Equal(t, "string", name.ReturnType)

	require.NotNil(t, alias)
	assert.Equal(t, manifest.KindType, alias.Kind)
}

func TestTypeScriptParser_ClassVisibility(t *testing.T) {
	result := parseTS(t, `export class Circle extends Shape implements Drawable {
  radius: number;
  private cache: number;

  constructor(radius: number) {
    this.radius = radius;
  }

  area(): number {
    return Math.PI * this.radius ** 2;
  }

  private invalidate(): void {}
}
`)

	var cls *manifest.Symbol
	byID := map[string]*manifest.Symbol{}
	for i := range result.Symbols {
		byID[result.Symbols[i].ID] = &result.Symbols[i]
	}
	cls = byID["math.ts:Circle"]

	require.NotNil(t, cls)
	assert.Equal(t, manifest.KindClass, cls.Kind)
	assert.Equal(t, "Shape", cls.Extends)
	assert.Equal(t, []string{"Drawable"}, cls.Implements)

	require.NotNil(t, byID["math.ts:Circle.radius"])
	assert.Equal(t, manifest.VisibilityPublic, byID["math.ts:Circle.radius"].Visibility)

	require.NotNil(t, byID["math.ts:Circle.cache"])
	assert.Equal(t, manifest.VisibilityPrivate, byID["math.ts:Circle.cache"].Visibility)

	require.NotNil(t, byID["math.ts:Circle.invalidate"])
	assert.Equal(t, manifest.VisibilityPrivate, byID["math.ts:Circle.invalidate"].Visibility)
	assert.False(t, byID["math.ts:Circle.invalidate"].Exported)

	require.NotNil(t, byID["math.ts:Circle.area"])
	assert.Equal(t, manifest.VisibilityPublic, byID["math.ts:Circle.area"].Visibility)
}

func TestTypeScriptParser_EnumAndConst(t *testing.T) {
	result := parseTS(t, `export enum Color { Red, Green }

export const LIMIT = 100;

const double = (n: number): number => n * 2;
`)

	byName := map[string]*manifest.Symbol{}
	for i := range result.Symbols {
		byName[result.Symbols[i].Name] = &result.Symbols[i]
	}

	require.NotNil(t, byName["Color"])
	assert.Equal(t, manifest.KindEnum, byName["Color"].Kind)

	require.NotNil(t, byName["LIMIT"])
	assert.Equal(t, manifest.KindConstant, byName["LIMIT"].Kind)
	assert.True(t, byName["LIMIT"].Exported)

	require.NotNil(t, byName["double"])
	assert.Equal(t, manifest.KindFunction, byName["double"].Kind)
	assert.False(t, byName["double"].Exported)
	assert.Equal(t, "number", byName["double"].ReturnType)
	require.Len(t, byName["double"].Parameters, 1)
	assert.Equal(t, "n", byName["double"].Parameters[0].Name)
}

func TestTypeScriptParser_ReExports(t *testing.T) {
	result := parseTS(t, `export * from './shapes';
export { add, sub as minus } from './math-impl';
`)

	require.Len(t, result.Exports, 3)
	assert.Equal(t, "*", result.Exports[0].Name)
	assert.Equal(t, "./shapes", result.Exports[0].Source)
	assert.Equal(t, "add", result.Exports[1].Name)
	assert.Equal(t, "sub", result.Exports[2].Name)
	assert.Equal(t, "minus", result.Exports[2].Alias)

	// Re-exports read the source module, so the graph must see them as
	// imports too.
	require.Len(t, result.Imports, 2)
	assert.Equal(t, "./shapes", result.Imports[0].Source)
	assert.Equal(t, "./math-impl", result.Imports[1].Source)
}

func TestTypeScriptParser_BareExportClause(t *testing.T) {
	result := parseTS(t, `function add(a: number, b: number): number {
  return a + b;
}

export { add };
`)

	require.Len(t, result.Symbols, 1)
	assert.True(t, result.Symbols[0].Exported)

	require.Len(t, result.Exports, 1)
	assert.Equal(t, "math.ts:add", result.Exports[0].SymbolID)
}

func TestTypeScriptParser_DefaultExport(t *testing.T) {
	result := parseTS(t, `export default function main(): void {}
`)

	require.Len(t, result.Exports, 1)
	assert.True(t, result.Exports[0].Default)
	assert.Equal(t, "main", result.Exports[0].Name)
}
