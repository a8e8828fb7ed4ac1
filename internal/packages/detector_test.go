package packages

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDetectPythonMapsAndFilters(t *testing.T) {
	code := "import os\nimport pandas as pd\nfrom sklearn.model_selection import train_test_split\nimport fastapi\n"
	got := DetectPython(code)
	want := map[string]bool{"pandas": true, "scikit-learn": true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, pkg := range got {
		if !want[pkg] {
			t.Errorf("unexpected package %q in %v", pkg, got)
		}
	}
}

func TestDetectNPMReducesScopedPackages(t *testing.T) {
	code := `import axios from 'axios'
import { Dialog } from '@radix-ui/react-dialog'
import debounce from 'lodash/debounce'
import { cn } from '@/lib/utils'
import fs from 'fs'
`
	got := DetectNPM(code)
	want := map[string]bool{"axios": true, "@radix-ui/react-dialog": true, "lodash": true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, pkg := range got {
		if !want[pkg] {
			t.Errorf("unexpected package %q in %v", pkg, got)
		}
	}
}

func TestDetectFromFilesDispatchesByExtension(t *testing.T) {
	files := []FileSet{
		{Path: "backend/app/apis/foo/__init__.py", Content: "import cv2\n"},
		{Path: "frontend/src/pages/Home.tsx", Content: "import { Chart } from 'recharts'\n"},
	}
	got := DetectFromFiles(files)
	if len(got.Python) != 1 || got.Python[0] != "opencv-python" {
		t.Errorf("expected mapped opencv-python, got %v", got.Python)
	}
	if len(got.NPM) != 1 || got.NPM[0] != "recharts" {
		t.Errorf("expected recharts, got %v", got.NPM)
	}
}

func TestMergePythonSortsAndDedupes(t *testing.T) {
	manifest := []byte("project:\n  name: demo\n  dependencies:\n    - fastapi\n    - pandas\n")
	out, err := MergePython(manifest, []string{"pandas", "numpy"})
	if err != nil {
		t.Fatal(err)
	}
	var m PythonManifest
	if err := yaml.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	want := []string{"fastapi", "numpy", "pandas"}
	if len(m.Project.Dependencies) != len(want) {
		t.Fatalf("got %v", m.Project.Dependencies)
	}
	for i, d := range want {
		if m.Project.Dependencies[i] != d {
			t.Errorf("got %v, want %v", m.Project.Dependencies, want)
		}
	}
}

func TestMergeNodeAddsLatestUnlessPinned(t *testing.T) {
	manifest := []byte(`{"name":"demo","dependencies":{"react":"18.2.0"}}`)
	out, err := MergeNode(manifest, []string{"react", "axios"})
	if err != nil {
		t.Fatal(err)
	}
	var m NodeManifest
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if m.Dependencies["react"] != "18.2.0" {
		t.Errorf("expected pinned react version preserved, got %q", m.Dependencies["react"])
	}
	if m.Dependencies["axios"] != "latest" {
		t.Errorf("expected new package at latest, got %q", m.Dependencies["axios"])
	}
}
