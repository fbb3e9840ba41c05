package constraints

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-params/types"
)

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "bad pattern", opts: []Option{Pattern("(")}},
		{name: "inverted length", opts: []Option{MinLength(5), MaxLength(2)}},
		{name: "inverted items", opts: []Option{MinItems(3), MaxItems(1)}},
		{name: "inverted numeric", opts: []Option{Min(10), Max(1)}},
		{name: "unknown validate tag", opts: []Option{Validate("not_a_real_tag")}},
		{name: "bad schema", opts: []Option{Schema(`{"type": `)}},
		{name: "nil predicate", opts: []Option{Func(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.opts...)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestNilSetHasNoViolations(t *testing.T) {
	var s *Set
	assert.Empty(t, s.Check("anything"))
	assert.Nil(t, s.First(int64(1)))
	_, ok := s.MinLength()
	assert.False(t, ok)
}

func TestStringConstraints(t *testing.T) {
	s := MustNew(MinLength(3), MaxLength(5), AllowChars("abcdef"), DenyChars("f"), Pattern(`^a`))

	tests := []struct {
		name    string
		value   string
		rule    Rule
		message string
	}{
		{name: "too short", value: "ab", rule: RuleMinLength, message: "must have at least 3 characters"},
		{name: "too long", value: "abcdee", rule: RuleMaxLength, message: "must have a maximum of 5 characters"},
		{name: "outside allow set", value: "abz", rule: RuleAllowChars, message: "must contain only characters: abcdef"},
		{name: "inside deny set", value: "abf", rule: RuleDenyChars, message: "must not contain: f"},
		{name: "pattern", value: "bcd", rule: RulePattern, message: "pattern does not match: ^a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viol := s.First(tt.value)
			require.NotNil(t, viol)
			assert.Equal(t, tt.rule, viol.Rule)
			assert.Equal(t, tt.message, viol.Message)
		})
	}

	assert.Nil(t, s.First("abc"))
}

func TestLengthIsCheckedBeforePattern(t *testing.T) {
	s := MustNew(MinLength(4), Pattern(`^\d+$`))

	viol := s.First("ab")
	require.NotNil(t, viol)
	assert.Equal(t, RuleMinLength, viol.Rule)

	all := s.Check("ab")
	require.Len(t, all, 2)
	assert.Equal(t, RuleMinLength, all[0].Rule)
	assert.Equal(t, RulePattern, all[1].Rule)
}

func TestNumericBounds(t *testing.T) {
	s := MustNew(Min(0), Max(10))

	viol := s.First(int64(-5))
	require.NotNil(t, viol)
	assert.Equal(t, "must be larger than 0", viol.Message)

	viol = s.First(10.5)
	require.NotNil(t, viol)
	assert.Equal(t, "must be smaller than 10", viol.Message)

	assert.Nil(t, s.First(int64(0)))
	assert.Nil(t, s.First(int64(10)))
	assert.Nil(t, s.First("12"), "numeric bounds ignore strings")

	viol = s.First(types.EnumValue{Name: "HIGH", Value: int64(11)})
	require.NotNil(t, viol)
	assert.Equal(t, RuleMax, viol.Rule)
}

func TestListCardinalityAndElements(t *testing.T) {
	s := MustNew(MinItems(2), MaxItems(3), MaxLength(2))

	viol := s.First([]any{"a"})
	require.NotNil(t, viol)
	assert.Equal(t, RuleMinItems, viol.Rule)
	assert.Equal(t, "must have at least 2 items", viol.Message)

	viol = s.First([]any{"a", "b", "c", "d"})
	require.NotNil(t, viol)
	assert.Equal(t, "must have a maximum of 3 items", viol.Message)

	viol = s.First([]any{"a", "bcd"})
	require.NotNil(t, viol)
	assert.Equal(t, RuleMaxLength, viol.Rule)
	assert.Equal(t, "item 1 must have a maximum of 2 characters", viol.Message)

	assert.Nil(t, s.First([]any{"ab", "cd"}))
}

func TestPredicate(t *testing.T) {
	even := MustNew(Func(func(v any) bool { return v.(int64)%2 == 0 }))
	viol := even.First(int64(3))
	require.NotNil(t, viol)
	assert.Equal(t, RuleFunc, viol.Rule)
	assert.Equal(t, "failed validator function", viol.Message)
	assert.Nil(t, even.First(int64(4)))

	custom := MustNew(FuncWithMessage(func(v any) (bool, string) {
		return false, "nope: " + v.(string)
	}))
	viol = custom.First("x")
	require.NotNil(t, viol)
	assert.Equal(t, "nope: x", viol.Message)
}

func TestPredicatePanicsPropagate(t *testing.T) {
	s := MustNew(Func(func(any) bool { panic("boom") }))
	assert.PanicsWithValue(t, "boom", func() { s.First("x") })
}

func TestPredicateSkippedAfterEarlierViolation(t *testing.T) {
	called := false
	s := MustNew(MinLength(3), Func(func(any) bool {
		called = true
		return true
	}))

	require.NotNil(t, s.First("a"))
	assert.False(t, called)
}

func TestValidateTag(t *testing.T) {
	s := MustNew(Validate("email"))

	viol := s.First("not-an-email")
	require.NotNil(t, viol)
	assert.Equal(t, RuleValidate, viol.Rule)
	assert.Equal(t, "must be a valid email address", viol.Message)
	assert.Nil(t, s.First("dev@example.com"))
	assert.Equal(t, "email", s.ValidateTag())
}

func TestSchema(t *testing.T) {
	s := MustNew(Schema(`{"type": "object", "required": ["id"], "properties": {"id": {"type": "integer"}}}`))

	assert.Nil(t, s.First(map[string]any{"id": int64(3)}))

	viol := s.First(map[string]any{"id": "x"})
	require.NotNil(t, viol)
	assert.Equal(t, RuleSchema, viol.Rule)
	assert.Contains(t, viol.Message, "does not match schema")

	viol = s.First(map[string]any{})
	require.NotNil(t, viol)
	assert.Equal(t, RuleSchema, viol.Rule)
}

func TestSchemaSeesWireRepresentation(t *testing.T) {
	s := MustNew(Schema(`{"type": "string", "format": "date-time"}`))
	assert.Nil(t, s.First(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestPredicateRunsEvenWithSchema(t *testing.T) {
	s := MustNew(Schema(`{"type": "integer"}`), Func(func(any) bool { return false }))

	viol := s.First(int64(1))
	require.NotNil(t, viol)
	assert.Equal(t, RuleFunc, viol.Rule)
}
