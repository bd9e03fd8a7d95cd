// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeProject lays down one package directory with a project.json.
func writeProject(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	if err := os.MkdirAll(full, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "project.json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestExtract_Workspace(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "packages/api",
		`{"name": "api", "dependsOn": ["core"], "implicitDependencies": ["util"]}`)
	writeProject(t, root, "packages/core",
		`{"name": "@acme/core", "dependsOn": ["util"]}`)
	writeProject(t, root, "packages/util",
		`{"name": "util"}`)

	adj, err := NewExtractor(root).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := AdjacencyMap{
		"api":  {"core", "util"},
		"core": {"util"},
		"util": {},
	}
	if !reflect.DeepEqual(adj, want) {
		t.Errorf("adjacency mismatch:\n got %v\nwant %v", adj, want)
	}
}

func TestExtract_NameFallsBackToDirectory(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "packages/billing", `{"dependsOn": []}`)

	adj, err := NewExtractor(root).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, ok := adj["billing"]; !ok {
		t.Errorf("expected directory-named node, got %v", adj)
	}
}

func TestExtract_SkipsVendorAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "packages/app", `{"name": "app"}`)
	writeProject(t, root, "node_modules/dep", `{"name": "vendored"}`)
	writeProject(t, root, ".cache/pkg", `{"name": "cached"}`)
	writeProject(t, root, "packages/app/dist", `{"name": "built"}`)

	adj, err := NewExtractor(root).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(adj) != 1 {
		t.Errorf("only the real package should survive, got %v", adj)
	}
}

func TestExtract_ExclusionsAndSelfEdges(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "packages/app",
		`{"name": "app", "dependsOn": ["app", "docs", "core"]}`)
	writeProject(t, root, "packages/core", `{"name": "core"}`)
	writeProject(t, root, "packages/docs", `{"name": "docs"}`)

	adj, err := NewExtractor(root, WithExcludedPackages("@acme/docs")).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if _, ok := adj["docs"]; ok {
		t.Error("excluded package must not appear as a node")
	}
	want := []string{"core"}
	if !reflect.DeepEqual(adj["app"], want) {
		t.Errorf("app deps = %v, want %v (self and excluded edges dropped)", adj["app"], want)
	}
}

func TestExtract_CustomConfigName(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "packages/app")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.meta.json"), []byte(`{"name": "app"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	adj, err := NewExtractor(root, WithConfigFileName("package.meta.json")).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, ok := adj["app"]; !ok {
		t.Errorf("custom config name not honored: %v", adj)
	}
}

func TestExtract_UnresolvedEdgeSurvives(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "packages/app", `{"name": "app", "dependsOn": ["ghost"]}`)

	adj, err := NewExtractor(root).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// The dangling edge is kept so validation can report it.
	if !reflect.DeepEqual(adj["app"], []string{"ghost"}) {
		t.Errorf("app deps = %v, want [ghost]", adj["app"])
	}
	if _, err := Sort(adj); err == nil {
		t.Error("Sort must reject the unresolved dependency")
	}
}
