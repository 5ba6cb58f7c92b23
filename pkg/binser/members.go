package binser

import (
	"reflect"
	"strings"
	"sync"
)

const tagName = "binser"

// field 描述结构体上一个可序列化的字段。
type field struct {
	name  string
	index []int
	typ   reflect.Type
}

// property 描述 *T 上一对读写访问器：X() T 与 SetX(T)。
type property struct {
	name   string
	getter int
	setter int
	typ    reflect.Type
}

type descriptor struct {
	typ         reflect.Type
	fields      []field
	props       []property
	fieldByName map[string]int
	propByName  map[string]int
}

var descriptors sync.Map // map[reflect.Type]*descriptor

// descriptorOf 返回结构体类型 t 的成员描述，结果按类型缓存。
func descriptorOf(t reflect.Type) *descriptor {
	if d, ok := descriptors.Load(t); ok {
		return d.(*descriptor)
	}
	d, _ := descriptors.LoadOrStore(t, buildDescriptor(t))
	return d.(*descriptor)
}

func buildDescriptor(t reflect.Type) *descriptor {
	d := &descriptor{
		typ:         t,
		fieldByName: make(map[string]int),
		propByName:  make(map[string]int),
	}
	d.fields = collectFields(t)
	for i, f := range d.fields {
		d.fieldByName[f.name] = i
	}
	d.props = collectProperties(t, d.fieldByName)
	for i, p := range d.props {
		d.propByName[p.name] = i
	}
	return d
}

// collectFields 按声明顺序收集导出字段。匿名嵌入的结构体会被展开，
// 但经由嵌入指针提升的字段不会被展开，嵌入指针本身作为普通字段处理。
// 时间、小数、键值对这类有专用布局的嵌入结构体同样作为普通字段处理。
func collectFields(t reflect.Type) []field {
	var (
		fields  []field
		seen    = make(map[string]struct{})
		opaque  [][]int
		visible = reflect.VisibleFields(t)
	)
	for _, sf := range visible {
		if hasPrefix(sf.Index, opaque) || promotedThroughPointer(t, sf.Index) {
			continue
		}
		if sf.Anonymous {
			ft := sf.Type
			if ft.Kind() == reflect.Struct && classify(ft, defaultRegistry) == Composite {
				continue
			}
			if ft.Kind() == reflect.Struct {
				opaque = append(opaque, sf.Index)
			}
		}
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup(tagName); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, field{name: name, index: sf.Index, typ: sf.Type})
	}
	return fields
}

func promotedThroughPointer(t reflect.Type, index []int) bool {
	cur := t
	for _, i := range index[:len(index)-1] {
		ft := cur.Field(i).Type
		if ft.Kind() == reflect.Pointer {
			return true
		}
		cur = ft
	}
	return false
}

func hasPrefix(index []int, prefixes [][]int) bool {
	for _, p := range prefixes {
		if len(index) > len(p) && equalInts(index[:len(p)], p) {
			return true
		}
	}
	return false
}

func equalInts(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// collectProperties 收集 *T 上成对出现的 X() T 与 SetX(T) 方法，按名称排序。
// 与字段重名的属性被忽略。
func collectProperties(t reflect.Type, fieldByName map[string]int) []property {
	pt := reflect.PointerTo(t)
	var props []property
	for i := 0; i < pt.NumMethod(); i++ {
		getter := pt.Method(i)
		gt := getter.Type
		// 方法类型的第一个入参是接收者
		if gt.NumIn() != 1 || gt.NumOut() != 1 {
			continue
		}
		if _, clash := fieldByName[getter.Name]; clash {
			continue
		}
		setter, ok := pt.MethodByName("Set" + getter.Name)
		if !ok {
			continue
		}
		st := setter.Type
		if st.NumIn() != 2 || st.NumOut() != 0 || st.In(1) != gt.Out(0) {
			continue
		}
		props = append(props, property{
			name:   getter.Name,
			getter: getter.Index,
			setter: setter.Index,
			typ:    gt.Out(0),
		})
	}
	return props
}
