package shader

import (
	"strings"
	"testing"
)

func TestParseAnnotationNonAnnotationLine(t *testing.T) {
	for _, line := range []string{
		"",
		"var x: f32;",
		"// a plain comment",
		"@group(0) @binding(0) var<uniform> camera: CameraUniform;",
	} {
		a, err := parseAnnotation(line, 1)
		if err != nil {
			t.Errorf("unexpected error for line %q: %v", line, err)
		}
		if a != nil {
			t.Errorf("expected nil annotation for line %q, got %+v", line, a)
		}
	}
}

func TestParseAnnotationInclude(t *testing.T) {
	a, err := parseAnnotation("//@mood:include camera", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != annotationTypeInclude {
		t.Errorf("expected include type, got %q", a.Type)
	}
	if len(a.Args) != 1 || a.Args[0] != AnnotationArgCamera {
		t.Errorf("expected args [camera], got %v", a.Args)
	}
	if a.Line != 7 {
		t.Errorf("expected line 7, got %d", a.Line)
	}
	if a.Group != nil || a.Binding != nil {
		t.Error("expected nil group and binding for include annotation")
	}
}

func TestParseAnnotationIncludeUnknownType(t *testing.T) {
	if _, err := parseAnnotation("//@mood:include bogus", 1); err == nil {
		t.Error("expected error for unknown struct type")
	}
}

func TestParseAnnotationGroup(t *testing.T) {
	a, err := parseAnnotation("  //@mood:group 3 2 storage_uniform shadow_params shadow_params", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != AnnotationTypeBindingGroup {
		t.Errorf("expected group type, got %q", a.Type)
	}
	if a.Group == nil || *a.Group != 3 {
		t.Errorf("expected group 3, got %v", a.Group)
	}
	if a.Binding == nil || *a.Binding != 2 {
		t.Errorf("expected binding 2, got %v", a.Binding)
	}
	if len(a.Args) != 3 || a.Args[0] != annotationArgStorageTypeUniform ||
		a.Args[1] != "shadow_params" || a.Args[2] != AnnotationArgShadowParams {
		t.Errorf("unexpected args %v", a.Args)
	}
}

func TestParseAnnotationGroupArrayType(t *testing.T) {
	a, err := parseAnnotation("//@mood:group 1 1 storage_read scene_lights array<light>", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Args[2] != "array<light>" {
		t.Errorf("expected array<light> type arg, got %q", a.Args[2])
	}
}

func TestParseAnnotationGroupErrors(t *testing.T) {
	cases := []string{
		"//@mood:group 0 0 storage_uniform camera",             // missing type
		"//@mood:group x 0 storage_uniform camera camera",      // bad group number
		"//@mood:group 0 y storage_uniform camera camera",      // bad binding number
		"//@mood:group 0 0 push_constant camera camera",        // unknown address space
		"//@mood:group 0 0 storage_uniform camera nope",        // unknown struct type
		"//@mood:group 0 0 storage_read lights array<nope>",    // unknown array element
		"//@mood:group 0 0 storage_uniform camera camera more", // too many args
	}
	for _, line := range cases {
		if _, err := parseAnnotation(line, 1); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestParseAnnotationProvider(t *testing.T) {
	a, err := parseAnnotation("//@mood:provider 3 0 shadow", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != AnnotationTypeProvider {
		t.Errorf("expected provider type, got %q", a.Type)
	}
	if *a.Group != 3 || *a.Binding != 0 {
		t.Errorf("expected group 3 binding 0, got %d %d", *a.Group, *a.Binding)
	}
	if len(a.Args) != 1 || a.Args[0] != AnnotationArgShadow {
		t.Errorf("unexpected args %v", a.Args)
	}
}

func TestParseAnnotationProviderWithBindingRole(t *testing.T) {
	a, err := parseAnnotation("//@mood:provider 2 0 material diffuse_texture", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Args) != 2 || a.Args[0] != AnnotationArgMaterial || a.Args[1] != AnnotationArgDiffuseTexture {
		t.Errorf("unexpected args %v", a.Args)
	}
}

func TestParseAnnotationProviderErrors(t *testing.T) {
	cases := []string{
		"//@mood:provider 2 0",                      // missing identity
		"//@mood:provider x 0 material",             // bad group
		"//@mood:provider 2 y material",             // bad binding
		"//@mood:provider 2 0 unknown",              // unknown identity
		"//@mood:provider 2 0 material bogus_role",  // unknown binding role
		"//@mood:provider 2 0 material diffuse_texture extra", // too many args
	}
	for _, line := range cases {
		if _, err := parseAnnotation(line, 1); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestParseAnnotationUnknownType(t *testing.T) {
	if _, err := parseAnnotation("//@mood:frobnicate 1 2 3", 1); err == nil {
		t.Error("expected error for unknown annotation type")
	}
	if _, err := parseAnnotation("//@mood:", 1); err == nil {
		t.Error("expected error for empty annotation")
	}
}

func TestProcessInclude(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process("//@mood:include camera\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "struct CameraUniform") {
		t.Error("expected processed output to contain the CameraUniform struct")
	}
	if strings.Contains(out, annotationPrefix) {
		t.Error("expected annotation line to be replaced")
	}
	if len(p.Declarations()) != 0 {
		t.Errorf("include annotations must not produce declarations, got %d", len(p.Declarations()))
	}
}

func TestProcessGroupDeclaration(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process("//@mood:group 0 0 storage_uniform camera camera\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "@group(0) @binding(0) var<uniform> camera: CameraUniform;"
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, out)
	}

	decls := p.Declarations()
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if decls[0].Type != AnnotationTypeBindingGroup {
		t.Errorf("expected binding group declaration, got %q", decls[0].Type)
	}
}

func TestProcessGroupArrayDeclaration(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process("//@mood:group 1 1 storage_read scene_lights array<light>\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "@group(1) @binding(1) var<storage, read> scene_lights: array<Light>;"
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestProcessProviderEmitsNoOutput(t *testing.T) {
	p := NewPreProcessor()
	src := "//@mood:provider 3 0 shadow\n@group(3) @binding(0) var shadow_map: texture_depth_cube_array;\n"
	out, err := p.Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, annotationPrefix) {
		t.Error("expected provider annotation line to be removed from output")
	}
	if !strings.Contains(out, "var shadow_map: texture_depth_cube_array;") {
		t.Error("expected hand-written declaration to be preserved")
	}

	decls := p.Declarations()
	if len(decls) != 1 || decls[0].Type != AnnotationTypeProvider {
		t.Fatalf("expected 1 provider declaration, got %+v", decls)
	}
	if decls[0].Args[0] != AnnotationArgShadow {
		t.Errorf("expected shadow provider identity, got %q", decls[0].Args[0])
	}
}

func TestProcessPreservesPlainLines(t *testing.T) {
	p := NewPreProcessor()
	src := "fn main() {\n    let x = 1.0;\n}"
	out, err := p.Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != src {
		t.Errorf("expected annotation-free source to pass through unchanged, got:\n%s", out)
	}
}

func TestProcessMalformedAnnotationFails(t *testing.T) {
	p := NewPreProcessor()
	if _, err := p.Process("//@mood:group 0 0 storage_uniform camera\n"); err == nil {
		t.Error("expected error for malformed annotation")
	}
}

func TestProcessResetsDeclarations(t *testing.T) {
	p := NewPreProcessor()
	if _, err := p.Process("//@mood:group 0 0 storage_uniform camera camera\n//@mood:provider 1 0 skybox\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Declarations()) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(p.Declarations()))
	}
	if _, err := p.Process("fn main() {}\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Declarations()) != 0 {
		t.Errorf("expected declarations to reset, got %d", len(p.Declarations()))
	}
}
