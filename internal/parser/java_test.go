package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/manifest"
)

func parseJava(t *testing.T, content string) *ParseResult {
	t.Helper()
	result, err := newJavaParser().Parse(context.Background(), []byte(content), "Svc.java")
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestJavaParser_ClassWithMembers(t *testing.T) {
	result := parseJava(t, `package com.example;

import java.util.List;
import java.io.*;

public class OrderService extends BaseService implements Closeable {
    private List<String> orders;

    public int count() {
        return orders.size();
    }

    protected void reset() {}

    void packagePrivate() {}
}
`)

	require.Len(t, result.Imports, 2)
	assert.Equal(t, "java.util.List", result.Imports[0].Source)
	assert.Equal(t, "List", result.Imports[0].Specifiers[0].Name)
	assert.Equal(t, "java.io", result.Imports[1].Source)
	assert.Equal(t, "*", result.Imports[1].Specifiers[0].Name)
	assert.True(t, result.Imports[1].Specifiers[0].Namespace)

	byID := map[string]*manifest.Symbol{}
	for i := range result.Symbols {
		byID[result.Symbols[i].ID] = &result.Symbols[i]
	}

	cls := byID["Svc.java:OrderService"]
	require.NotNil(t, cls)
	assert.Equal(t, manifest.KindClass, cls.Kind)
	assert.True(t, cls.Exported)
	assert.Equal(t, "BaseService", cls.Extends)
	assert.Equal(t, []string{"Closeable"}, cls.Implements)

	field := byID["Svc.java:OrderService.orders"]
	require.NotNil(t, field)
	assert.Equal(t, manifest.KindProperty, field.Kind)
	assert.Equal(t, manifest.VisibilityPrivate, field.Visibility)
	assert.Equal(t, "List<String>", field.ReturnType)

	count := byID["Svc.java:OrderService.count"]
	require.NotNil(t, count)
	assert.Equal(t, manifest.KindMethod, count.Kind)
	assert.Equal(t, manifest.VisibilityPublic, count.Visibility)
	assert.Equal(t, "int", count.ReturnType)

	reset := byID["Svc.java:OrderService.reset"]
	require.NotNil(t, reset)
	assert.Equal(t, manifest.VisibilityProtected, reset.Visibility)

	pp := byID["Svc.java:OrderService.packagePrivate"]
	require.NotNil(t, pp)
	assert.Equal(t, manifest.VisibilityInternal, pp.Visibility)
	assert.False(t, pp.Exported)
}

func TestJavaParser_InterfaceAndEnum(t *testing.T) {
	result := parseJava(t, `public interface Greeter {
    String greet(String name);
}
`)

	byID := map[string]*manifest.Symbol{}
	for i := range result.Symbols {
		byID[result.Symbols[i].ID] = &result.Symbols[i]
	}

	iface := byID["Svc.java:Greeter"]
	require.NotNil(t, iface)
	assert.Equal(t, manifest.KindInterface, iface.Kind)

	greet := byID["Svc.java:Greeter.greet"]
	require.NotNil(t, greet)
	assert.Equal(t, "String", greet.ReturnType)
	require.Len(t, greet.Parameters, 1)
	assert.Equal(t, "name", greet.Parameters[0].Name)

	result = parseJava(t, `public enum Status { OPEN, CLOSED }
`)
	require.NotEmpty(t, result.Symbols)
	assert.Equal(t, manifest.KindEnum, result.Symbols[0].Kind)
}

func TestJavaParser_PackagePrivateClassNotExported(t *testing.T) {
	result := parseJava(t, `class Hidden {}
`)

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, manifest.VisibilityInternal, result.Symbols[0].Visibility)
	assert.Empty(t, result.Exports)
}
