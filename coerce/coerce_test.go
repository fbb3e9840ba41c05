package coerce

import (
	"encoding/json"
	"mime/multipart"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

var (
	fromQuery = Options{Origin: source.KindQuery}
	fromJSON  = Options{Origin: source.KindJSON}
	fromPath  = Options{Origin: source.KindPath}
)

func TestPrimitiveLiteralsRoundTrip(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name string
		raw  string
		typ  types.Descriptor
		want any
	}{
		{name: "string", raw: "hello", typ: types.String, want: "hello"},
		{name: "int", raw: "42", typ: types.Int, want: int64(42)},
		{name: "negative int", raw: "-7", typ: types.Int, want: int64(-7)},
		{name: "float", raw: "3.14", typ: types.Float, want: 3.14},
		{name: "integral float", raw: "3", typ: types.Float, want: 3.0},
		{name: "bool true", raw: "true", typ: types.Bool, want: true},
		{name: "bool mixed case", raw: "FaLsE", typ: types.Bool, want: false},
		{name: "uuid", raw: id.String(), typ: types.UUID, want: id},
		{name: "date", raw: "2024-02-29", typ: types.Date, want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{name: "time", raw: "13:45:10", typ: types.Time, want: time.Date(0, 1, 1, 13, 45, 10, 0, time.UTC)},
		{name: "datetime", raw: "2024-01-02T03:04:05Z", typ: types.DateTime, want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tt.typ, fromQuery)
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvalidLiteralsAreTypeMismatches(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  types.Descriptor
		opts Options
	}{
		{name: "int from word", raw: "abc", typ: types.Int, opts: fromQuery},
		{name: "int from decimal", raw: "3.5", typ: types.Int, opts: fromQuery},
		{name: "float from word", raw: "x1", typ: types.Float, opts: fromQuery},
		{name: "float NaN", raw: "NaN", typ: types.Float, opts: fromQuery},
		{name: "float Inf", raw: "Inf", typ: types.Float, opts: fromQuery},
		{name: "bool from yes", raw: "yes", typ: types.Bool, opts: fromQuery},
		{name: "bool from 1", raw: "1", typ: types.Bool, opts: fromQuery},
		{name: "uuid", raw: "not-a-uuid", typ: types.UUID, opts: fromQuery},
		{name: "json string for int", raw: "5", typ: types.Int, opts: fromJSON},
		{name: "json string for bool", raw: "true", typ: types.Bool, opts: fromJSON},
		{name: "json float for int", raw: json.Number("7.0"), typ: types.Int, opts: fromJSON},
		{name: "json number for string", raw: json.Number("7"), typ: types.String, opts: fromJSON},
		{name: "repeated key for scalar", raw: []string{"1", "2"}, typ: types.Int, opts: fromQuery},
		{name: "date is strict", raw: "02/29/2024", typ: types.Date, opts: fromQuery},
		{name: "datetime garbage", raw: "yesterday", typ: types.DateTime, opts: fromQuery},
		{name: "file from string", raw: "a.txt", typ: types.File, opts: fromQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.raw, tt.typ, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}
}

func TestNativeValuesAreIdempotent(t *testing.T) {
	now := time.Now()
	fh := &multipart.FileHeader{Filename: "a.png"}

	tests := []struct {
		name string
		raw  any
		typ  types.Descriptor
		want any
	}{
		{name: "json bool", raw: true, typ: types.Bool, want: true},
		{name: "json int", raw: json.Number("7"), typ: types.Int, want: int64(7)},
		{name: "json float", raw: json.Number("7.5"), typ: types.Float, want: 7.5},
		{name: "native int64", raw: int64(3), typ: types.Int, want: int64(3)},
		{name: "native float", raw: 2.5, typ: types.Float, want: 2.5},
		{name: "time", raw: now, typ: types.DateTime, want: now},
		{name: "file", raw: fh, typ: types.File, want: fh},
		{name: "dict", raw: map[string]any{"a": "b"}, typ: types.Dict, want: map[string]any{"a": "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tt.typ, fromJSON)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathOrigin(t *testing.T) {
	got, err := Coerce(4.0, types.Int, fromPath)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)

	_, err = Coerce(4.5, types.Int, fromPath)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Coerce(4.0, types.Int, fromQuery)
	assert.ErrorIs(t, err, ErrTypeMismatch, "integral floats are accepted from typed path segments only")

	got, err = Coerce(int64(9), types.String, fromPath)
	require.NoError(t, err)
	assert.Equal(t, "9", got)
}

func TestAnyIsUntouched(t *testing.T) {
	raw := []string{"a", "b"}
	got, err := Coerce(raw, types.Any, fromQuery)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestOptional(t *testing.T) {
	got, err := Coerce(nil, types.Optional(types.Int), fromQuery)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Coerce("", types.Optional(types.Int), Options{Origin: source.KindQuery, BlankNone: true})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Coerce("", types.Optional(types.Int), fromQuery)
	assert.ErrorIs(t, err, ErrTypeMismatch, "blank string is only None when enabled")

	got, err = Coerce("", types.Optional(types.String), Options{Origin: source.KindJSON, BlankNone: true})
	require.NoError(t, err)
	assert.Equal(t, "", got, "blank JSON strings are real values")
}

func TestUnionOrderIsPriority(t *testing.T) {
	tests := []struct {
		name string
		typ  types.Descriptor
		raw  any
		want any
	}{
		{name: "str before int", typ: types.Union(types.String, types.Int), raw: "5", want: "5"},
		{name: "int before str", typ: types.Union(types.Int, types.String), raw: "5", want: int64(5)},
		{name: "int before float", typ: types.Union(types.Int, types.Float), raw: "3", want: int64(3)},
		{name: "float before int", typ: types.Union(types.Float, types.Int), raw: "3", want: 3.0},
		{name: "bool before int", typ: types.Union(types.Bool, types.Int), raw: "true", want: true},
		{name: "str before bool", typ: types.Union(types.String, types.Bool), raw: "true", want: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tt.typ, fromQuery)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnionFromJSON(t *testing.T) {
	typ := types.Union(types.Bool, types.Int)

	got, err := Coerce(json.Number("7"), typ, fromJSON)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	_, err = Coerce("7", typ, fromJSON)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Union[bool, int]", cerr.Expected)
}

func TestListFromScalar(t *testing.T) {
	list := types.List(types.String)

	got, err := Coerce("", list, fromQuery)
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)

	got, err = Coerce("x", list, fromQuery)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, got)

	_, err = Coerce("x", list, Options{Origin: source.KindQuery, DisableImplicitList: true})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	got, err = Coerce("a,b", list, fromQuery)
	require.NoError(t, err)
	assert.Equal(t, []any{"a,b"}, got, "comma splitting is opt-in")

	got, err = Coerce("a,b", list, Options{Origin: source.KindQuery, SplitCSV: true})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)
}

func TestListElements(t *testing.T) {
	got, err := Coerce([]string{"1", "2"}, types.List(types.Int), fromQuery)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, got)

	_, err = Coerce([]string{"1", "x", "3"}, types.List(types.Int), fromQuery)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "[1]", cerr.Path)
	assert.Equal(t, "int", cerr.Expected)

	_, err = Coerce(json.Number("1"), types.List(types.Int), fromJSON)
	assert.ErrorIs(t, err, ErrTypeMismatch, "JSON scalars are not wrapped")
}

func TestEnum(t *testing.T) {
	color := types.StrEnum("Color",
		types.EnumMember{Name: "RED", Value: "red"},
		types.EnumMember{Name: "BLUE", Value: "blue"},
	)
	level := types.IntEnum("Level",
		types.EnumMember{Name: "LOW", Value: 1},
		types.EnumMember{Name: "HIGH", Value: 10},
	)

	got, err := Coerce("blue", color, fromQuery)
	require.NoError(t, err)
	assert.Equal(t, types.EnumValue{Name: "BLUE", Value: "blue"}, got)

	got, err = Coerce("10", level, fromQuery)
	require.NoError(t, err)
	assert.Equal(t, types.EnumValue{Name: "HIGH", Value: int64(10)}, got)

	got, err = Coerce(json.Number("1"), level, fromJSON)
	require.NoError(t, err)
	assert.Equal(t, "LOW", got.(types.EnumValue).Name)

	_, err = Coerce("green", color, fromQuery)
	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "must be one of: red, blue")

	got, err = Coerce([]string{"red", "blue"}, types.Optional(types.List(color)), fromQuery)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

var user = types.Record("User",
	types.Required("id", types.Int),
	types.Required("name", types.String),
	types.NotRequired("nick", types.String),
)

func TestRecordFieldPresence(t *testing.T) {
	got, err := Coerce(map[string]any{"id": json.Number("1"), "name": "a", "extra": true}, user, fromJSON)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "a", "extra": true}, got)

	_, err = Coerce(map[string]any{"name": "a"}, user, fromJSON)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, "id", cerr.Path)
}

func TestRecordFromEncodedStringUsesJSONRules(t *testing.T) {
	_, err := Coerce(`{"id": "x", "name": "a"}`, user, Options{Origin: source.KindForm})
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, "id", cerr.Path)

	_, err = Coerce(`{"id": "1", "name": "a"}`, user, Options{Origin: source.KindForm})
	assert.ErrorIs(t, err, ErrTypeMismatch, "numeric strings inside JSON are not numbers")

	got, err := Coerce(`{"id": 1, "name": "a"}`, user, Options{Origin: source.KindForm})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.(map[string]any)["id"])

	_, err = Coerce(`{"id": 1`, user, Options{Origin: source.KindForm})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestNestedRecordPath(t *testing.T) {
	typ := types.List(types.Record("Order", types.Required("customer", user)))
	raw := []any{
		map[string]any{"customer": map[string]any{"id": json.Number("1"), "name": "a"}},
		map[string]any{"customer": map[string]any{"id": json.Number("2"), "name": json.Number("3")}},
	}

	_, err := Coerce(raw, typ, fromJSON)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "[1].customer.name", cerr.Path)
	assert.Equal(t, "[1].customer.name: expected str, got number 3", err.Error())
}

func TestDescribeTruncatesOnCharacterBoundary(t *testing.T) {
	long := strings.Repeat("a", 39) + "éééé"

	got := Describe(long)
	assert.Equal(t, `string "`+strings.Repeat("a", 39)+`é..."`, got)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, `string "short"`, Describe("short"))
}
