package validator

import (
	"testing"

	"github.com/appgenhq/appgen/pkg/models"
)

func TestValidatePythonValid(t *testing.T) {
	src := "import os\nfrom typing import List\n\n\ndef greet(name):\n    return f\"hello {name}\"\n"
	result := Validate(models.LanguagePython, src)
	if !result.Valid {
		t.Fatalf("expected valid, got errors: %+v", result.Errors)
	}
	if len(result.Imports) != 2 || result.Imports[0] != "os" || result.Imports[1] != "typing" {
		t.Errorf("unexpected imports: %v", result.Imports)
	}
}

func TestValidatePythonUnclosedBracket(t *testing.T) {
	src := "def greet(name:\n    return name\n"
	result := Validate(models.LanguagePython, src)
	if result.Valid {
		t.Fatal("expected invalid for unclosed bracket")
	}
	if len(result.Errors) != 1 || result.Errors[0].Suggestion == "" {
		t.Errorf("expected one error with a suggestion, got %+v", result.Errors)
	}
}

func TestValidatePythonMixedTabsAndSpaces(t *testing.T) {
	src := "def greet():\n\t    return 1\n"
	result := Validate(models.LanguagePython, src)
	if result.Valid {
		t.Fatal("expected invalid for mixed tabs/spaces")
	}
}

func TestValidateTypeScriptValid(t *testing.T) {
	src := `import React from "react"
import { useState } from "react"
import Button from "./Button"

export function Page() {
  const [count, setCount] = useState(0)
  return <div>{count}</div>
}
`
	result := Validate(models.LanguageTypeScript, src)
	if !result.Valid {
		t.Fatalf("expected valid, got errors: %+v", result.Errors)
	}
	if len(result.Imports) != 1 || result.Imports[0] != "react" {
		t.Errorf("expected single external import 'react', got %v", result.Imports)
	}
}

func TestValidateTypeScriptUnmatchedBraces(t *testing.T) {
	src := `export function Page() {
  return <div>{count}</div>
`
	result := Validate(models.LanguageTypeScript, src)
	if result.Valid {
		t.Fatal("expected invalid for unmatched braces")
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "unmatched braces" {
		t.Errorf("expected 'unmatched braces' error, got %+v", result.Errors)
	}
}

func TestValidateTypeScriptScopedPackageImport(t *testing.T) {
	src := `import { Stripe } from "@stripe/stripe-js/dist/module"
`
	result := Validate(models.LanguageTypeScript, src)
	if !result.Valid {
		t.Fatalf("expected valid, got errors: %+v", result.Errors)
	}
	if len(result.Imports) != 1 || result.Imports[0] != "@stripe/stripe-js" {
		t.Errorf("expected reduced scoped package name, got %v", result.Imports)
	}
}

func TestValidateUnknownLanguage(t *testing.T) {
	result := Validate(models.Language("ruby"), "whatever")
	if !result.Valid {
		t.Error("unknown languages should be treated as valid")
	}
}
