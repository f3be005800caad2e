package interpret

import (
	"errors"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

func TestFirstObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "empty", input: "", ok: false},
		{name: "plain prose", input: "not json at all", ok: false},
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "wrapped in prose", input: `Sure! {"a":{"b":2}} enjoy`, want: `{"a":{"b":2}}`, ok: true},
		{name: "braces inside strings", input: `x {"a":"}{"} y`, want: `{"a":"}{"}`, ok: true},
		{name: "escaped quote", input: `{"a":"say \"}\" ok"}`, want: `{"a":"say \"}\" ok"}`, ok: true},
		{name: "stray quote in prose", input: `He said "here it is: {"a":1}`, want: `{"a":1}`, ok: true},
		{name: "first of two", input: `{"a":1} and {"b":2}`, want: `{"a":1}`, ok: true},
		{name: "unbalanced", input: `{"a":1`, ok: false},
		{name: "unclosed outer", input: `{"a":{"b":1}`, want: `{"b":1}`, ok: true},
		{name: "unclosed brace in prose", input: `Use the { placeholder. {"a":1}`, want: `{"a":1}`, ok: true},
		{name: "fenced", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstObject(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("FirstObject(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestInterpretProseWrappedWelcomeCard(t *testing.T) {
	it := New(views.DefaultRegistry())
	res := it.Interpret(`Sure! {"component":"WelcomeCard","props":{"userName":"Sam"}} enjoy`)
	if res.Fallback {
		t.Fatalf("unexpected fallback: %v", res.Err)
	}
	want := types.ViewDescriptor{Type: types.WelcomeCard, Props: map[string]any{"userName": "Sam"}}
	if diff := cmp.Diff(want, res.Descriptor); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretSkipsUnusableCandidates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unclosed brace before object", raw: `Use the { placeholder. {"component":"WelcomeCard","props":{"userName":"Sam"}}`},
		{name: "malformed object before object", raw: `{oops} then {"component":"WelcomeCard","props":{"userName":"Sam"}}`},
	}
	it := New(views.DefaultRegistry())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := it.Interpret(tt.raw)
			if res.Fallback {
				t.Fatalf("unexpected fallback: %v", res.Err)
			}
			if res.Descriptor.Type != types.WelcomeCard {
				t.Fatalf("view = %s", res.Descriptor.Type)
			}
		})
	}
}

func TestInterpretNotJSON(t *testing.T) {
	it := New(views.DefaultRegistry())
	res := it.Interpret("not json at all")
	if !res.Fallback {
		t.Fatal("expected fallback")
	}
	if !errors.Is(res.Err, types.ErrNoJSONFound) {
		t.Fatalf("expected ErrNoJSONFound, got %v", res.Err)
	}
	if diff := cmp.Diff(DefaultFallback(), res.Descriptor); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
	fields := res.Descriptor.Props["fields"].([]any)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fallback fields, got %d", len(fields))
	}
	for _, f := range fields {
		if f.(map[string]any)["required"] != true {
			t.Fatalf("fallback field not required: %v", f)
		}
	}
}

func TestInterpretErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		opts    []Option
		wantErr error
	}{
		{name: "malformed", raw: `{"component": WelcomeCard}`, wantErr: types.ErrMalformedJSON},
		{name: "missing component", raw: `{"props":{}}`, wantErr: types.ErrMissingKeys},
		{name: "missing props", raw: `{"component":"WelcomeCard"}`, wantErr: types.ErrMissingKeys},
		{name: "props not object", raw: `{"component":"WelcomeCard","props":[]}`, wantErr: types.ErrSchemaViolation},
		{name: "unknown view", raw: `{"component":"FooBar","props":{}}`, wantErr: types.ErrUnknownViewType},
		{name: "missing required prop", raw: `{"component":"ActionPlan","props":{"goal":"x"}}`, wantErr: types.ErrSchemaViolation},
		{name: "unknown prop strict", raw: `{"component":"WelcomeCard","props":{"userName":"x","extra":1}}`, wantErr: types.ErrSchemaViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(views.DefaultRegistry(), tt.opts...).Interpret(tt.raw)
			if !res.Fallback {
				t.Fatal("expected fallback")
			}
			if !errors.Is(res.Err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, res.Err)
			}
			if res.Update != nil {
				t.Fatal("fallback must not carry a context update")
			}
		})
	}
}

func TestInterpretAcceptedShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		opts []Option
		want types.ViewTypeID
	}{
		{name: "type alias", raw: `{"type":"WelcomeCard","props":{}}`, want: types.WelcomeCard},
		{name: "nested view", raw: `{"view":{"component":"WelcomeCard","props":{}}}`, want: types.WelcomeCard},
		{name: "nested ui", raw: `{"ui":{"type":"WelcomeCard","props":{"userName":"a"}}}`, want: types.WelcomeCard},
		{
			name: "unknown prop lenient",
			raw:  `{"component":"WelcomeCard","props":{"userName":"x","extra":1}}`,
			opts: []Option{WithStrictUnknownProps(false)},
			want: types.WelcomeCard,
		},
		{
			name: "decision matrix empty options",
			raw:  `{"component":"DecisionMatrix","props":{"options":[],"criteria":[]}}`,
			want: types.DecisionMatrix,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(views.DefaultRegistry(), tt.opts...).Interpret(tt.raw)
			if res.Fallback {
				t.Fatalf("unexpected fallback: %v", res.Err)
			}
			if res.Descriptor.Type != tt.want {
				t.Fatalf("type = %s, want %s", res.Descriptor.Type, tt.want)
			}
		})
	}
}

func TestInterpretContextUpdate(t *testing.T) {
	it := New(views.DefaultRegistry())
	res := it.Interpret(`{"component":"WelcomeCard","props":{},"contextUpdate":{"careerStage":"student","skills":["go"]}}`)
	if res.Fallback {
		t.Fatalf("unexpected fallback: %v", res.Err)
	}
	if res.Update == nil || res.Update.CareerStage == nil || *res.Update.CareerStage != "student" {
		t.Fatalf("unexpected update: %+v", res.Update)
	}
	if diff := cmp.Diff([]string{"go"}, res.Update.Skills); diff != "" {
		t.Fatalf("skills mismatch:\n%s", diff)
	}

	res = it.Interpret(`{"component":"WelcomeCard","props":{},"contextUpdate":{"skills":"not a list"}}`)
	if res.Fallback || res.Update != nil {
		t.Fatalf("malformed update should be ignored: %+v", res)
	}
}

func TestFallbackViewTypeOption(t *testing.T) {
	it := New(views.DefaultRegistry(), WithFallbackViewType(types.ActionPlan))
	if got := it.Fallback().Type; got != types.InfoGatheringForm {
		t.Fatalf("invalid fallback type should revert to InfoGatheringForm, got %s", got)
	}
	custom := types.ViewDescriptor{Type: types.WelcomeCard, Props: map[string]any{"userName": "there"}}
	it = New(views.DefaultRegistry(), WithFallbackDescriptor(custom))
	if diff := cmp.Diff(custom, it.Interpret("").Descriptor); diff != "" {
		t.Fatalf("custom fallback mismatch:\n%s", diff)
	}
}

func TestInterpretTotal(t *testing.T) {
	reg := views.DefaultRegistry()
	it := New(reg)
	total := func(raw string) bool {
		res := it.Interpret(raw)
		return reg.Validate(res.Descriptor) == nil
	}
	if err := quick.Check(total, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatal(err)
	}
	for _, raw := range []string{"", "{", "}", "{}", "{{}}", `{"component":null,"props":null}`, "[1,2]"} {
		if !total(raw) {
			t.Fatalf("interpret not total for %q", raw)
		}
	}
}
