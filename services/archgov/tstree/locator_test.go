// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tstree

import (
	"context"
	"strings"
	"testing"
)

func mustParse(t *testing.T, source string) *Tree {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(source), "test.ts")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t.Cleanup(tree.Close)
	return tree
}

func TestParse_Guards(t *testing.T) {
	ctx := context.Background()

	_, err := Parse(ctx, []byte("const x = 1;"), "big.ts", WithMaxFileSize(4))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum size") {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}

	_, err = Parse(ctx, []byte{0xff, 0xfe, 0x01}, "bad.ts")
	if err == nil || !strings.Contains(err.Error(), "invalid file content") {
		t.Errorf("expected ErrInvalidContent, got %v", err)
	}
}

func TestParse_SyntaxErrorsStillYieldTree(t *testing.T) {
	tree := mustParse(t, "function broken( {\n")
	if tree.Root() == nil {
		t.Fatal("expected a best-effort tree for invalid source")
	}
}

func TestLocate_Functions(t *testing.T) {
	source := `function alpha(): number {
  return 1;
}

export function beta(x: number): number {
  return x * 2;
}
`
	tree := mustParse(t, source)
	constructs := Locate(tree)

	if len(constructs) != 2 {
		t.Fatalf("got %d constructs, want 2: %+v", len(constructs), constructs)
	}
	if constructs[0].Name != "alpha" || constructs[0].Kind != KindFunction {
		t.Errorf("first construct = %+v", constructs[0])
	}
	if constructs[0].StartLine != 1 || constructs[0].EndLine != 3 {
		t.Errorf("alpha span = [%d, %d], want [1, 3]", constructs[0].StartLine, constructs[0].EndLine)
	}
	if constructs[1].Name != "beta" || constructs[1].StartLine != 5 {
		t.Errorf("second construct = %+v", constructs[1])
	}
}

func TestLocate_ClassMembers(t *testing.T) {
	source := `class OrderService {
  constructor(private repo: Repo) {}

  async load(id: string): Promise<Order> {
    return this.repo.find(id);
  }

  private format = (o: Order): string => {
    return o.id;
  };
}
`
	tree := mustParse(t, source)
	constructs := Locate(tree)

	names := make(map[string]ConstructKind)
	for _, c := range constructs {
		names[c.Name] = c.Kind
	}

	if _, ok := names["constructor"]; ok {
		t.Error("constructor must not be recorded as a construct")
	}
	if kind, ok := names["load"]; !ok || kind != KindMethod {
		t.Errorf("load = %v, %v; want method", kind, ok)
	}
	if kind, ok := names["format"]; !ok || kind != KindArrow {
		t.Errorf("format = %v, %v; want arrow", kind, ok)
	}
}

func TestLocate_ArrowBindings(t *testing.T) {
	source := `const handler = async (req: Request) => {
  return respond(req);
};

let compute = function (x: number) {
  return x + 1;
};

const notAFunction = 42;
`
	tree := mustParse(t, source)
	constructs := Locate(tree)

	if len(constructs) != 2 {
		t.Fatalf("got %d constructs, want 2: %+v", len(constructs), constructs)
	}
	if constructs[0].Name != "handler" || constructs[0].StartLine != 1 || constructs[0].EndLine != 3 {
		t.Errorf("handler = %+v", constructs[0])
	}
	if constructs[1].Name != "compute" {
		t.Errorf("compute = %+v", constructs[1])
	}
}

func TestLocate_InterfaceMethods(t *testing.T) {
	source := `interface Repo {
  find(id: string): Order;
  count(): number;
}
`
	tree := mustParse(t, source)
	constructs := Locate(tree)

	if len(constructs) != 2 {
		t.Fatalf("got %d constructs, want 2: %+v", len(constructs), constructs)
	}
	for _, c := range constructs {
		if c.Kind != KindMethod {
			t.Errorf("%s kind = %v, want method", c.Name, c.Kind)
		}
	}
}

func TestLocate_TSXFile(t *testing.T) {
	source := "const View = (props: Props) => <div>{props.name}</div>;\n"
	tree, err := Parse(context.Background(), []byte(source), "view.tsx")
	if err != nil {
		t.Fatalf("Parse tsx: %v", err)
	}
	defer tree.Close()

	constructs := Locate(tree)
	if len(constructs) != 1 || constructs[0].Name != "View" {
		t.Fatalf("constructs = %+v, want single View", constructs)
	}
}
