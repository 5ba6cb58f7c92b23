package binser

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lk2023060901/binser-go/pkg/log"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

const (
	pointerPrefix = "*"
	anyName       = "any"
)

var (
	protoEnumType = reflect.TypeFor[protoreflect.Enum]()
	anyType       = reflect.TypeFor[any]()
)

type registryEntry struct {
	name string
	typ  reflect.Type
}

// Registry 维护类型名与 Go 类型之间的双向映射。
// 编码接口类型的槽位时，通过它取得动态类型的名称；解码时再按名称找回类型并分配零值实例。
// 所有方法都可以并发调用。
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*registryEntry
	byType map[reflect.Type]*registryEntry
	enums  map[reflect.Type]struct{}
}

// NewRegistry 创建一个预先注册了内置类型的 Registry。
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*registryEntry),
		byType: make(map[reflect.Type]*registryEntry),
		enums:  make(map[reflect.Type]struct{}),
	}
	r.registerBuiltins()
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry 返回包级函数使用的全局 Registry。
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func (r *Registry) registerBuiltins() {
	builtins := []struct {
		name string
		typ  reflect.Type
	}{
		{"bool", reflect.TypeFor[bool]()},
		{"int", reflect.TypeFor[int]()},
		{"int8", reflect.TypeFor[int8]()},
		{"int16", reflect.TypeFor[int16]()},
		{"int32", reflect.TypeFor[int32]()},
		{"int64", reflect.TypeFor[int64]()},
		{"uint", reflect.TypeFor[uint]()},
		{"uint8", reflect.TypeFor[uint8]()},
		{"uint16", reflect.TypeFor[uint16]()},
		{"uint32", reflect.TypeFor[uint32]()},
		{"uint64", reflect.TypeFor[uint64]()},
		{"float32", reflect.TypeFor[float32]()},
		{"float64", reflect.TypeFor[float64]()},
		{"string", reflect.TypeFor[string]()},
		{"char", runeType},
		{"time.Time", timeType},
		{"time.Duration", reflect.TypeFor[time.Duration]()},
		{"decimal.Decimal", decimalType},
		{"[]byte", reflect.TypeFor[[]byte]()},
		{"[]string", reflect.TypeFor[[]string]()},
		{"[]any", reflect.TypeFor[[]any]()},
		{"map[string]any", reflect.TypeFor[map[string]any]()},
		{"map[string]string", reflect.TypeFor[map[string]string]()},
	}
	for _, b := range builtins {
		entry := &registryEntry{name: b.name, typ: b.typ}
		r.byName[b.name] = entry
		r.byType[b.typ] = entry
	}
}

// DefaultTypeName 返回类型默认的注册名：PkgPath + "." + Name。
// 未命名的类型没有默认名称，返回空字符串。
func DefaultTypeName(t reflect.Type) string {
	if t == nil || t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// Register 以 name 注册类型 t；name 为空时使用 DefaultTypeName。
// 同一类型以相同名称重复注册是幂等的。
func (r *Registry) Register(t reflect.Type, name string) error {
	if t == nil {
		return merr.WrapErrParameterMissing("type")
	}
	switch t.Kind() {
	case reflect.Pointer:
		return merr.WrapErrParameterInvalidMsg("register %s instead of pointer type %s", t.Elem(), t)
	case reflect.Interface:
		return merr.WrapErrParameterInvalidMsg("interface type %s cannot be a concrete dynamic type", t)
	}
	if name == "" {
		name = DefaultTypeName(t)
		if name == "" {
			return merr.WrapErrParameterMissing("name", "unnamed type "+t.String()+" requires an explicit name")
		}
	}
	if strings.HasPrefix(name, pointerPrefix) {
		return merr.WrapErrParameterInvalidMsg("type name %q must not start with %q", name, pointerPrefix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok {
		if existing.typ == t {
			return nil
		}
		return merr.WrapErrDuplicateTypeName(name, existing.typ, t)
	}
	if existing, ok := r.byType[t]; ok {
		return merr.WrapErrDuplicateTypeName(existing.name, t, t)
	}
	entry := &registryEntry{name: name, typ: t}
	r.byName[name] = entry
	r.byType[t] = entry
	log.Debug("binser type registered", zap.String("name", name), log.FieldType(t))
	return nil
}

// Register 以 name 注册类型 T。
func Register[T any](r *Registry, name string) error {
	return r.Register(reflect.TypeFor[T](), name)
}

// MustRegister 与 Register 相同，但在失败时 panic，适合在 init 中使用。
func MustRegister[T any](r *Registry, name string) {
	if err := Register[T](r, name); err != nil {
		panic(err)
	}
}

// RegisterEnum 把命名整数类型 t 标记为枚举，并以默认名称注册它。
// 枚举按 int32 序号编码。实现了 protoreflect.Enum 的类型无需标记。
func (r *Registry) RegisterEnum(t reflect.Type) error {
	if t == nil {
		return merr.WrapErrParameterMissing("type")
	}
	if !isIntegerKind(t.Kind()) {
		return merr.WrapErrParameterInvalid("integer kind", t.Kind().String())
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return merr.WrapErrParameterInvalidMsg("enum type %s must be a named, declared type", t)
	}
	r.mu.Lock()
	r.enums[t] = struct{}{}
	_, known := r.byType[t]
	r.mu.Unlock()
	if known {
		return nil
	}
	return r.Register(t, "")
}

// RegisterEnum 把 E 标记为枚举类型。
func RegisterEnum[E any](r *Registry) error {
	return r.RegisterEnum(reflect.TypeFor[E]())
}

// IsEnum 判断 t 是否按枚举编码。
func (r *Registry) IsEnum(t reflect.Type) bool {
	if t == nil || !isIntegerKind(t.Kind()) {
		return false
	}
	if t.Implements(protoEnumType) {
		return true
	}
	r.mu.RLock()
	_, ok := r.enums[t]
	r.mu.RUnlock()
	return ok
}

// NameOf 返回类型 t 的注册名。指针类型的名称为 "*" 加上元素类型的名称。
func (r *Registry) NameOf(t reflect.Type) (string, error) {
	if t == nil {
		return "", merr.WrapErrParameterMissing("type")
	}
	r.mu.RLock()
	entry, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return entry.name, nil
	}
	if t.Kind() == reflect.Pointer {
		name, err := r.NameOf(t.Elem())
		if err != nil {
			return "", err
		}
		return pointerPrefix + name, nil
	}
	if t.Name() == "" {
		if name, ok := r.structuralName(t); ok {
			return name, nil
		}
	}
	return "", merr.WrapErrUnregisteredType(t)
}

// structuralName 为未命名的切片、数组与 map 按元素类型的注册名拼出名称，
// 例如 []int、[4]main.Point、map[string][]float64。
func (r *Registry) structuralName(t reflect.Type) (string, bool) {
	var err error
	elem := func(et reflect.Type) string {
		if err != nil {
			return ""
		}
		if et == anyType {
			return anyName
		}
		var name string
		name, err = r.NameOf(et)
		return name
	}
	var name string
	switch t.Kind() {
	case reflect.Slice:
		name = "[]" + elem(t.Elem())
	case reflect.Array:
		name = "[" + strconv.Itoa(t.Len()) + "]" + elem(t.Elem())
	case reflect.Map:
		name = "map[" + elem(t.Key()) + "]" + elem(t.Elem())
	default:
		return "", false
	}
	return name, err == nil
}

// Resolve 按名称找回注册的类型。
func (r *Registry) Resolve(name string) (reflect.Type, error) {
	r.mu.RLock()
	entry, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return entry.typ, nil
	}
	if elem, found := strings.CutPrefix(name, pointerPrefix); found && elem != "" {
		t, err := r.Resolve(elem)
		if err != nil {
			return nil, merr.WrapErrUnresolvedType(name)
		}
		return reflect.PointerTo(t), nil
	}
	if t, ok := r.resolveStructural(name); ok {
		return t, nil
	}
	return nil, merr.WrapErrUnresolvedType(name)
}

// resolveStructural 是 structuralName 的逆过程。
func (r *Registry) resolveStructural(name string) (reflect.Type, bool) {
	elem := func(n string) (reflect.Type, bool) {
		if n == anyName {
			return anyType, true
		}
		t, err := r.Resolve(n)
		return t, err == nil
	}
	switch {
	case strings.HasPrefix(name, "[]"):
		et, ok := elem(name[2:])
		if !ok {
			return nil, false
		}
		return reflect.SliceOf(et), true
	case strings.HasPrefix(name, "["):
		size, rest, found := strings.Cut(name[1:], "]")
		n, err := strconv.Atoi(size)
		if !found || err != nil || n < 0 {
			return nil, false
		}
		et, ok := elem(rest)
		if !ok {
			return nil, false
		}
		return reflect.ArrayOf(n, et), true
	case strings.HasPrefix(name, "map["):
		end := closingBracket(name, len("map"))
		if end < 0 {
			return nil, false
		}
		kt, ok := elem(name[len("map["):end])
		if !ok || !kt.Comparable() {
			return nil, false
		}
		vt, ok := elem(name[end+1:])
		if !ok {
			return nil, false
		}
		return reflect.MapOf(kt, vt), true
	}
	return nil, false
}

// closingBracket 返回与 s[open] 处的 '[' 配对的 ']' 下标，找不到时返回 -1。
func closingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// New 按名称分配一个零值实例，不调用任何构造逻辑。返回值可寻址。
func (r *Registry) New(name string) (reflect.Value, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.New(t).Elem(), nil
}

// Names 返回所有已注册的名称，按字典序排列。
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.byName)
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
