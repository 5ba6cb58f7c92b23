package binser

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

type Level int16

type registrySample struct {
	A int
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, Register[registrySample](r, ""))
	name, err := r.NameOf(reflect.TypeFor[registrySample]())
	require.NoError(t, err)
	assert.Equal(t, "github.com/lk2023060901/binser-go/pkg/binser.registrySample", name)

	// 同名同类型重复注册是幂等的
	assert.NoError(t, Register[registrySample](r, ""))
	// 同一类型不能换名
	assert.ErrorIs(t, Register[registrySample](r, "sample"), merr.ErrDuplicateTypeName)
	// 名称不能被其他类型占用
	assert.ErrorIs(t, Register[Unrelated](r, name), merr.ErrDuplicateTypeName)

	resolved, err := r.Resolve(name)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[registrySample](), resolved)
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register(nil, "x"), merr.ErrParameterMissing)
	assert.ErrorIs(t, Register[*Circle](r, "c"), merr.ErrParameterInvalid)
	assert.ErrorIs(t, Register[Shape](r, "shape"), merr.ErrParameterInvalid)
	assert.ErrorIs(t, Register[struct{ X int }](r, ""), merr.ErrParameterMissing)
	assert.ErrorIs(t, Register[Circle](r, "*circle"), merr.ErrParameterInvalid)
	assert.Panics(t, func() { MustRegister[*Circle](r, "c") })
}

func TestRegistryPointerNames(t *testing.T) {
	r := NewRegistry()
	MustRegister[Circle](r, "circle")

	name, err := r.NameOf(reflect.TypeFor[**Circle]())
	require.NoError(t, err)
	assert.Equal(t, "**circle", name)

	typ, err := r.Resolve("**circle")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[**Circle](), typ)

	_, err = r.Resolve("*missing")
	assert.ErrorIs(t, err, merr.ErrUnresolvedType)
	_, err = r.Resolve("*")
	assert.ErrorIs(t, err, merr.ErrUnresolvedType)
	_, err = r.NameOf(reflect.TypeFor[*Square]())
	assert.ErrorIs(t, err, merr.ErrUnregisteredType)
}

func TestRegistryStructuralNames(t *testing.T) {
	r := NewRegistry()
	MustRegister[Circle](r, "circle")

	cases := []struct {
		typ  reflect.Type
		name string
	}{
		{reflect.TypeFor[[]int](), "[]int"},
		{reflect.TypeFor[[]float64](), "[]float64"},
		{reflect.TypeFor[[2]*Circle](), "[2]*circle"},
		{reflect.TypeFor[map[string]int](), "map[string]int"},
		{reflect.TypeFor[map[[2]int]string](), "map[[2]int]string"},
		{reflect.TypeFor[map[string][]Circle](), "map[string][]circle"},
		{reflect.TypeFor[[][]any](), "[][]any"},
		{reflect.TypeFor[*[]int](), "*[]int"},
	}
	for _, c := range cases {
		name, err := r.NameOf(c.typ)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.name, name)
		typ, err := r.Resolve(name)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.typ, typ)
	}

	_, err := r.NameOf(reflect.TypeFor[[]Square]())
	assert.ErrorIs(t, err, merr.ErrUnregisteredType)
	_, err = r.NameOf(reflect.TypeFor[[]Shape]())
	assert.ErrorIs(t, err, merr.ErrUnregisteredType)
	for _, bad := range []string{"[]missing", "[x]int", "[-1]int", "map[[]int]string", "map[string", "any"} {
		_, err = r.Resolve(bad)
		assert.ErrorIs(t, err, merr.ErrUnresolvedType, bad)
	}
}

func TestRegistryNew(t *testing.T) {
	r := NewRegistry()
	MustRegister[Line](r, "line")

	v, err := r.New("line")
	require.NoError(t, err)
	assert.True(t, v.CanSet())
	assert.Equal(t, Line{}, v.Interface())

	_, err = r.New("nope")
	assert.ErrorIs(t, err, merr.ErrUnresolvedType)
}

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"bool", "int32", "string", "char", "time.Time", "decimal.Decimal", "[]byte", "[]any", "map[string]any"} {
		_, err := r.Resolve(name)
		assert.NoError(t, err, name)
	}
	names := r.Names()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "float64")
}

func TestRegistryEnums(t *testing.T) {
	r := NewRegistry()
	lt := reflect.TypeFor[Level]()
	assert.False(t, r.IsEnum(lt))
	require.NoError(t, RegisterEnum[Level](r))
	assert.True(t, r.IsEnum(lt))
	assert.NoError(t, RegisterEnum[Level](r))

	name, err := r.NameOf(lt)
	require.NoError(t, err)
	assert.Equal(t, DefaultTypeName(lt), name)

	// protobuf 枚举无需注册
	assert.True(t, r.IsEnum(reflect.TypeFor[descriptorpb.FieldDescriptorProto_Label]()))

	assert.ErrorIs(t, RegisterEnum[string](r), merr.ErrParameterInvalid)
	assert.ErrorIs(t, RegisterEnum[int32](r), merr.ErrParameterInvalid)
	assert.ErrorIs(t, r.RegisterEnum(nil), merr.ErrParameterMissing)
	assert.False(t, r.IsEnum(reflect.TypeFor[int32]()))
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = Register[Circle](r, "circle")
				_, _ = r.Resolve("circle")
				_, _ = r.NameOf(reflect.TypeFor[*Circle]())
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	name, err := r.NameOf(reflect.TypeFor[Circle]())
	require.NoError(t, err)
	assert.Equal(t, "circle", name)
}
