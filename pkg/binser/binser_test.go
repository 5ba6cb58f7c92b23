package binser

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func str(s string) []byte {
	return append(le32(uint32(len(s))), s...)
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := Encode(v)
	require.NoError(t, err)
	got, err := Decode(data, reflect.TypeOf(v))
	require.NoError(t, err)
	return got
}

func TestScalarRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		value any
		size  int
	}{
		{"bool true", true, 1},
		{"bool false", false, 1},
		{"int8", int8(-5), 1},
		{"int16", int16(-300), 2},
		{"int32", int32(math.MinInt32), 4},
		{"int64", int64(math.MaxInt64), 8},
		{"int", 42, 8},
		{"uint8", uint8(255), 1},
		{"uint16", uint16(65535), 2},
		{"uint32", uint32(math.MaxUint32), 4},
		{"uint64", uint64(math.MaxUint64), 8},
		{"float32", float32(3.5), 4},
		{"float64", -2.25, 8},
		{"duration", 5 * time.Second, 8},
		{"char", Rune('世'), 4},
		{"enum", Blue, 4},
		{"proto enum", descriptorpb.FieldDescriptorProto_TYPE_STRING, 4},
		{"empty string", "", 4},
		{"utf8 string", "héllo 世界", 4 + len("héllo 世界")},
		{"fixed bytes", [4]byte{1, 2, 3, 4}, 8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data, err := Encode(c.value)
			require.NoError(t, err)
			assert.Len(t, data, c.size)
			got, err := Decode(data, reflect.TypeOf(c.value))
			require.NoError(t, err)
			assert.Equal(t, c.value, got)
		})
	}
}

func TestWireLayout(t *testing.T) {
	t.Run("int32", func(t *testing.T) {
		data, err := Encode(int32(1))
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0, 0, 0}, data)
	})
	t.Run("string", func(t *testing.T) {
		data, err := Encode("hi")
		require.NoError(t, err)
		assert.Equal(t, []byte{2, 0, 0, 0, 'h', 'i'}, data)
	})
	t.Run("nil", func(t *testing.T) {
		data, err := Encode(nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0}, data)
	})
	t.Run("sequence", func(t *testing.T) {
		data, err := Encode([]int16{1, 2})
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 0, 0, 0, 1, 0, 2, 0}, data)
	})
	t.Run("enum widens to int32", func(t *testing.T) {
		data, err := Encode(Green)
		require.NoError(t, err)
		assert.Equal(t, le32(1), data)
	})
	t.Run("composite", func(t *testing.T) {
		data, err := Encode(Line{Sku: "a", Qty: 2})
		require.NoError(t, err)
		want := concat(
			le32(3),
			str("Sku"), le32(5), str("a"),
			str("Qty"), le32(4), le32(2),
			str("Price"), le32(8), make([]byte, 8),
			le32(0),
		)
		assert.Equal(t, want, data)
	})
	t.Run("polymorphic", func(t *testing.T) {
		data, err := EncodeAs[Shape](Circle{})
		require.NoError(t, err)
		want := concat(
			[]byte{markerPresent},
			str("test.Circle"),
			le32(1), str("Radius"), le32(8), make([]byte, 8),
			le32(0),
		)
		assert.Equal(t, want, data)
	})
	t.Run("sorted map keys", func(t *testing.T) {
		data, err := Encode(map[string]int32{"b": 2, "a": 1})
		require.NoError(t, err)
		want := concat([]byte{markerPresent}, le32(2), str("a"), le32(1), str("b"), le32(2))
		assert.Equal(t, want, data)
	})
}

func TestBytesRoundTrip(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 3}, roundTrip(t, []byte{1, 2, 3}))
	assert.Equal(t, []byte{}, roundTrip(t, []byte{}))

	data, err := Encode([]byte(nil))
	require.NoError(t, err)
	assert.Equal(t, []byte{markerNull}, data)
	got, err := DecodeAs[[]byte](data)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSequenceRoundTrip(t *testing.T) {
	assert.Equal(t, []string{"a", "", "c"}, roundTrip(t, []string{"a", "", "c"}))
	assert.Equal(t, [3]int16{-1, 0, 1}, roundTrip(t, [3]int16{-1, 0, 1}))
	assert.Equal(t, [][]int32{{1}, nil, {}}, roundTrip(t, [][]int32{{1}, nil, {}}))
	assert.Equal(t, []*Line{{Sku: "x"}, nil}, roundTrip(t, []*Line{{Sku: "x"}, nil}))

	lines := make([]Line, 100)
	for i := range lines {
		lines[i] = Line{Sku: "sku", Qty: int32(i)}
	}
	assert.Equal(t, lines, roundTrip(t, lines))
}

func TestMappingRoundTrip(t *testing.T) {
	m := map[string]int64{"one": 1, "two": 2, "three": 3}
	assert.Equal(t, m, roundTrip(t, m))

	nested := map[int32][]string{1: {"a"}, 2: nil}
	assert.Equal(t, nested, roundTrip(t, nested))

	keyed := map[[2]int8]Line{{1, 2}: {Sku: "k"}}
	assert.Equal(t, keyed, roundTrip(t, keyed))

	assert.Equal(t, map[string]string{}, roundTrip(t, map[string]string{}))
}

func TestMappingDeterministic(t *testing.T) {
	m := make(map[int]string)
	for i := 0; i < 64; i++ {
		m[i] = "v"
	}
	first, err := Encode(m)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Encode(m)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPairRoundTrip(t *testing.T) {
	p := NewPair("answer", int32(42))
	data, err := Encode(p)
	require.NoError(t, err)
	assert.Equal(t, concat(str("answer"), le32(42)), data)
	assert.Equal(t, p, roundTrip(t, p))

	pairs := []Pair[int8, *Line]{{Key: 1, Value: &Line{Sku: "x"}}, {Key: 2}}
	assert.Equal(t, pairs, roundTrip(t, pairs))
}

func TestTimeRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 17, 8, 30, 0, 123456700, time.UTC)
	assert.Equal(t, ts, roundTrip(t, ts))

	zero, err := Encode(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), zero)
	assert.Equal(t, time.Time{}, roundTrip(t, time.Time{}))

	epoch, err := Encode(time.Unix(0, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian.AppendUint64(nil, 621355968000000000), epoch)

	// 非 UTC 的时间解码后落在 UTC，但表示同一时刻
	local := time.Date(2024, 1, 1, 8, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))
	got := roundTrip(t, local).(time.Time)
	assert.True(t, local.Equal(got))
	assert.Equal(t, time.UTC, got.Location())

	// 精度为 100ns
	fine := time.Date(2024, 1, 1, 0, 0, 0, 199, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 100, time.UTC), roundTrip(t, fine))
}

func TestOrderRoundTrip(t *testing.T) {
	note := "leave at door"
	order := Order{
		ID:       7,
		Customer: "ada",
		Created:  time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC),
		Lines: []Line{
			{Sku: "A-1", Qty: 2, Price: 9.5},
			{Sku: "B-2", Qty: 1, Price: 120},
		},
		Tags:     map[string]string{"channel": "web"},
		Note:     &note,
		Shape:    Circle{Radius: 5},
		Status:   Green,
		Secret:   "never written",
		Renamed:  3,
		internal: 99,
	}
	got, err := DecodeAs[Order](mustEncode(t, order))
	require.NoError(t, err)

	want := order
	want.Secret = ""
	want.internal = 0
	assert.Equal(t, want, got)

	// 指针目标
	ptr, err := DecodeAs[*Order](mustEncode(t, &order))
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, want, *ptr)
}

func mustEncode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := Encode(v)
	require.NoError(t, err)
	return data
}

func TestEmbeddedRoundTrip(t *testing.T) {
	d := Derived{Base: Base{ID: 1, Kind: "k"}, Name: "n"}
	assert.Equal(t, d, roundTrip(t, d))
}

func TestPropertyRoundTrip(t *testing.T) {
	acc := Account{Owner: "bob", balance: 42}
	got := roundTrip(t, acc).(Account)
	assert.Equal(t, int64(42), got.Balance())
	assert.Equal(t, "bob", got.Owner)
}

func TestNullRoundTrip(t *testing.T) {
	null := mustEncode(t, nil)

	line, err := DecodeAs[*Line](null)
	require.NoError(t, err)
	assert.Nil(t, line)

	shape, err := DecodeAs[Shape](null)
	require.NoError(t, err)
	assert.Nil(t, shape)

	m, err := DecodeAs[map[string]int](null)
	require.NoError(t, err)
	assert.Nil(t, m)

	typed, err := Encode((*Line)(nil))
	require.NoError(t, err)
	assert.Equal(t, null, typed)

	_, err = DecodeAs[Line](null)
	assert.ErrorIs(t, err, merr.ErrTruncated)
}

type PolymorphicSuite struct {
	suite.Suite
}

func (s *PolymorphicSuite) TestResolveConcreteType() {
	data, err := EncodeAs[Shape](Circle{Radius: 5})
	s.Require().NoError(err)
	got, err := DecodeAs[Shape](data)
	s.Require().NoError(err)
	s.Equal(Circle{Radius: 5}, got)
	s.InDelta(math.Pi*25, got.Area(), 1e-9)
}

func (s *PolymorphicSuite) TestPointerDynamicType() {
	box := Box{Label: "b", Item: &Square{Side: 2}, Any: []any{int32(1), "two", nil}}
	got, err := DecodeAs[Box](mustEncode(s.T(), box))
	s.Require().NoError(err)
	s.Equal(box, got)
	s.IsType(&Square{}, got.Item)
}

func (s *PolymorphicSuite) TestHeterogeneousCollections() {
	values := []any{int32(1), "two", 3.0, nil, Circle{Radius: 1}, []byte("raw"), map[string]any{"k": true}}
	got, err := DecodeAs[[]any](mustEncode(s.T(), values))
	s.Require().NoError(err)
	s.Equal(values, got)

	shapes := map[string]Shape{"c": Circle{Radius: 1}, "s": &Square{Side: 3}}
	gotShapes, err := DecodeAs[map[string]Shape](mustEncode(s.T(), shapes))
	s.Require().NoError(err)
	s.Equal(shapes, gotShapes)
}

func (s *PolymorphicSuite) TestTypeMismatch() {
	data, err := EncodeAs[any](Unrelated{Name: "x"})
	s.Require().NoError(err)
	_, err = DecodeAs[Shape](data)
	s.ErrorIs(err, merr.ErrTypeMismatch)
	var decErr *DecodeError
	s.True(errors.As(err, &decErr))
}

func (s *PolymorphicSuite) TestUnresolvedType() {
	data, err := EncodeAs[Shape](Circle{Radius: 1})
	s.Require().NoError(err)
	fresh := NewCodec(WithRegistry(NewRegistry()))
	_, err = DecodeTyped[Shape](fresh, data)
	s.ErrorIs(err, merr.ErrUnresolvedType)
}

func (s *PolymorphicSuite) TestUnregisteredDynamicType() {
	type local struct{ A int }
	_, err := EncodeAs[any](local{A: 1})
	s.ErrorIs(err, merr.ErrUnregisteredType)
	var encErr *EncodeError
	s.Require().True(errors.As(err, &encErr))
	s.Equal("any", encErr.Path)

	_, err = Encode(Box{Label: "x", Item: nil, Any: local{A: 2}})
	s.Require().True(errors.As(err, &encErr))
	s.Equal("Box.Any", encErr.Path)
}

func (s *PolymorphicSuite) TestUnnamedCollectionsInAny() {
	values := []any{
		[]int{1, 2},
		map[string]int{"a": 1},
		[]float64{1.5},
		[2]int32{3, 4},
		map[string][]*Circle{"c": {{Radius: 2}}},
		[][]any{{"x", int64(1)}},
	}
	got, err := DecodeAs[[]any](mustEncode(s.T(), values))
	s.Require().NoError(err)
	s.Equal(values, got)

	type local struct{ A int }
	_, err = EncodeAs[any]([]local{{A: 1}})
	s.ErrorIs(err, merr.ErrUnregisteredType)
}

func TestPolymorphic(t *testing.T) {
	suite.Run(t, new(PolymorphicSuite))
}

type OrderV1 struct {
	ID       uint64
	Customer string
}

type OrderV2 struct {
	ID       uint64
	Extra    []string
	Customer string
	Nested   Line
}

type WithString struct {
	Val   string
	Other string
}

type WithInt struct {
	Val   int64
	Other string
}

func TestUnknownMemberTolerance(t *testing.T) {
	v2 := OrderV2{ID: 9, Extra: []string{"a", "b"}, Customer: "zed", Nested: Line{Sku: "n"}}
	res, err := DecodeWithReport(mustEncode(t, v2), reflect.TypeFor[OrderV1]())
	require.NoError(t, err)
	assert.Equal(t, OrderV1{ID: 9, Customer: "zed"}, res.Value)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, "OrderV1.Extra", res.Skipped[0].Path)
	assert.Equal(t, "OrderV1.Nested", res.Skipped[1].Path)
	assert.ErrorIs(t, res.Skipped[0].Reason, merr.ErrMemberSkipped)
	assert.False(t, res.Complete())
}

func TestMemberErrorLeavesZeroValue(t *testing.T) {
	data := mustEncode(t, WithString{Val: "hi", Other: "kept"})
	res, err := DecodeWithReport(data, reflect.TypeFor[WithInt]())
	require.NoError(t, err)
	assert.Equal(t, WithInt{Other: "kept"}, res.Value)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "WithInt.Val", res.Skipped[0].Path)
	assert.ErrorIs(t, res.Skipped[0].Reason, merr.ErrTruncated)

	long := mustEncode(t, WithString{Val: "hello", Other: "kept"})
	res, err = DecodeWithReport(long, reflect.TypeFor[WithInt]())
	require.NoError(t, err)
	assert.Equal(t, WithInt{Other: "kept"}, res.Value)
	require.Len(t, res.Skipped, 1)
	assert.ErrorIs(t, res.Skipped[0].Reason, merr.ErrCorruptStream)
}

type WideArrays struct {
	A   [3]int32
	Raw [4]byte
}

type NarrowArrays struct {
	A   [2]int32
	Raw [2]byte
}

func TestArrayLengthMismatch(t *testing.T) {
	wide := WideArrays{A: [3]int32{1, 2, 3}, Raw: [4]byte{9, 8, 7, 6}}
	res, err := DecodeWithReport(mustEncode(t, wide), reflect.TypeFor[NarrowArrays]())
	require.NoError(t, err)
	assert.Equal(t, NarrowArrays{A: [2]int32{1, 2}, Raw: [2]byte{9, 8}}, res.Value)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, "NarrowArrays.A", res.Skipped[0].Path)
	assert.Equal(t, "NarrowArrays.Raw", res.Skipped[1].Path)
	assert.ErrorIs(t, res.Skipped[0].Reason, merr.ErrCorruptStream)
	assert.False(t, res.Complete())

	narrow := NarrowArrays{A: [2]int32{1, 2}, Raw: [2]byte{5, 4}}
	res, err = DecodeWithReport(mustEncode(t, narrow), reflect.TypeFor[WideArrays]())
	require.NoError(t, err)
	assert.Equal(t, WideArrays{A: [3]int32{1, 2, 0}, Raw: [4]byte{5, 4, 0, 0}}, res.Value)
	assert.Len(t, res.Skipped, 2)

	// 顶层数组同样记录
	res, err = DecodeWithReport(mustEncode(t, [3]int32{1, 2, 3}), reflect.TypeFor[[2]int32]())
	require.NoError(t, err)
	assert.Equal(t, [2]int32{1, 2}, res.Value)
	assert.Len(t, res.Skipped, 1)

	// 长度一致时没有跳过
	res, err = DecodeWithReport(mustEncode(t, wide), reflect.TypeFor[WideArrays]())
	require.NoError(t, err)
	assert.True(t, res.Complete())

	strict := NewCodec(WithStrict(true))
	_, err = strict.Decode(mustEncode(t, wide), reflect.TypeFor[NarrowArrays]())
	assert.ErrorIs(t, err, merr.ErrCorruptStream)
	_, err = strict.Decode(mustEncode(t, [1]byte{1}), reflect.TypeFor[[2]byte]())
	assert.ErrorIs(t, err, merr.ErrCorruptStream)
}

func TestSetterPanicIsSkipped(t *testing.T) {
	data := mustEncode(t, Picky{Name: "p", level: -1})
	res, err := DecodeWithReport(data, reflect.TypeFor[Picky]())
	require.NoError(t, err)
	assert.Equal(t, Picky{Name: "p"}, res.Value)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "Picky.Level", res.Skipped[0].Path)
}

func TestGetterPanicIsEncodeError(t *testing.T) {
	_, err := Encode(Fragile{Name: "f"})
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrEncodeMember)
	var encErr *EncodeError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "Fragile.Risky", encErr.Path)
}

func TestStrictMode(t *testing.T) {
	strict := NewCodec(WithStrict(true))

	_, err := strict.Decode(mustEncode(t, OrderV2{ID: 1}), reflect.TypeFor[OrderV1]())
	assert.ErrorIs(t, err, merr.ErrMemberSkipped)

	_, err = strict.Decode(mustEncode(t, WithString{Val: "hi"}), reflect.TypeFor[WithInt]())
	assert.ErrorIs(t, err, merr.ErrTruncated)

	data := append(mustEncode(t, int32(1)), 0xFF)
	_, err = strict.Decode(data, reflect.TypeFor[int32]())
	assert.ErrorIs(t, err, merr.ErrCorruptStream)

	// 非 Strict 模式忽略尾部字节
	got, err := Decode(data, reflect.TypeFor[int32]())
	require.NoError(t, err)
	assert.Equal(t, int32(1), got)
}

func TestTruncatedStream(t *testing.T) {
	note := "n"
	data := mustEncode(t, Order{
		ID:    1,
		Lines: []Line{{Sku: "a"}},
		Tags:  map[string]string{"k": "v"},
		Note:  &note,
		Shape: &Square{Side: 1},
	})
	for cut := 0; cut < len(data); cut++ {
		_, err := Decode(data[:cut], reflect.TypeFor[Order]())
		require.Errorf(t, err, "cut=%d", cut)
		assert.ErrorIsf(t, err, merr.ErrTruncated, "cut=%d", cut)
		var decErr *DecodeError
		assert.Truef(t, errors.As(err, &decErr), "cut=%d", cut)
	}

	_, err := Decode(nil, reflect.TypeFor[string]())
	assert.ErrorIs(t, err, merr.ErrTruncated)
}

func TestHugeDeclaredLength(t *testing.T) {
	data := concat([]byte{markerPresent}, le32(math.MaxInt32), []byte{1, 2, 3})
	_, err := Decode(data, reflect.TypeFor[[]byte]())
	assert.ErrorIs(t, err, merr.ErrTruncated)

	negative := concat([]byte{markerPresent}, le32(math.MaxUint32))
	_, err = Decode(negative, reflect.TypeFor[[]int32]())
	assert.ErrorIs(t, err, merr.ErrCorruptStream)

	_, err = Decode([]byte{0x02}, reflect.TypeFor[*int32]())
	assert.ErrorIs(t, err, merr.ErrCorruptStream)
}

func TestLimits(t *testing.T) {
	cyclic := &Node{Val: 1}
	cyclic.Next = cyclic
	limited := NewCodec(WithMaxDepth(32))
	_, err := limited.Encode(cyclic)
	assert.ErrorIs(t, err, merr.ErrLimitExceeded)

	chain := &Node{Val: 1, Next: &Node{Val: 2, Next: &Node{Val: 3, Next: &Node{Val: 4}}}}
	data := mustEncode(t, chain)
	_, err = NewCodec(WithMaxDepth(4)).Decode(data, reflect.TypeFor[*Node]())
	assert.ErrorIs(t, err, merr.ErrLimitExceeded)
	got, err := Decode(data, reflect.TypeFor[*Node]())
	require.NoError(t, err)
	assert.Equal(t, chain, got)

	cfg := DefaultConfig()
	cfg.MaxCollectionLen = 5
	cfg.MaxStringLen = 3
	small := NewCodec(WithConfig(cfg))
	_, err = small.Decode(mustEncode(t, make([]int32, 10)), reflect.TypeFor[[]int32]())
	assert.ErrorIs(t, err, merr.ErrLimitExceeded)
	_, err = small.Decode(mustEncode(t, "toolong"), reflect.TypeFor[string]())
	assert.ErrorIs(t, err, merr.ErrLimitExceeded)
}

func TestInvalidTargets(t *testing.T) {
	_, err := Decode([]byte{0}, reflect.TypeFor[chan int]())
	assert.ErrorIs(t, err, merr.ErrInvalidTarget)

	_, err = Decode([]byte{0}, nil)
	assert.ErrorIs(t, err, merr.ErrInvalidTarget)

	var line Line
	assert.ErrorIs(t, Unmarshal(mustEncode(t, Line{}), line), merr.ErrInvalidTarget)
	require.NoError(t, Unmarshal(mustEncode(t, Line{Sku: "u"}), &line))
	assert.Equal(t, "u", line.Sku)

	type withFunc struct{ F func() }
	_, err = Encode(withFunc{})
	assert.ErrorIs(t, err, merr.ErrUnsupportedType)
}

func TestDecodeFromStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeInto(&buf, Line{Sku: "first"}))
	require.NoError(t, EncodeInto(&buf, "second"))
	require.NoError(t, EncodeInto(&buf, nil))

	first, err := DecodeFrom(&buf, reflect.TypeFor[Line]())
	require.NoError(t, err)
	assert.Equal(t, Line{Sku: "first"}, first)
	second, err := DecodeFrom(&buf, reflect.TypeFor[string]())
	require.NoError(t, err)
	assert.Equal(t, "second", second)
	third, err := DecodeFrom(&buf, reflect.TypeFor[*Line]())
	require.NoError(t, err)
	assert.Nil(t, third)
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSinkFailure(t *testing.T) {
	err := EncodeInto(failingWriter{}, Line{Sku: "x"})
	assert.ErrorIs(t, err, merr.ErrSinkFailed)
}

func TestEncodeAll(t *testing.T) {
	values := make([]any, 0, 64)
	for i := 0; i < 64; i++ {
		values = append(values, Line{Sku: "sku", Qty: int32(i)})
	}
	values = append(values, nil, "tail")

	out, err := Default().EncodeAll(context.Background(), values)
	require.NoError(t, err)
	require.Len(t, out, len(values))
	for i, v := range values {
		assert.Equal(t, mustEncode(t, v), out[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Default().EncodeAll(ctx, values)
	assert.ErrorIs(t, err, context.Canceled)

	empty, err := Default().EncodeAll(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEncodeDeclaredTypeMismatch(t *testing.T) {
	enc := Default().NewEncoder(&bytes.Buffer{})
	err := enc.Encode(reflect.ValueOf("s"), reflect.TypeFor[int32]())
	assert.ErrorIs(t, err, merr.ErrTypeMismatch)

	err = Default().NewEncoder(&bytes.Buffer{}).Encode(reflect.Value{}, reflect.TypeFor[int32]())
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
