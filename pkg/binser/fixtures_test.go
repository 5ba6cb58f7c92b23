package binser

import (
	"math"
	"time"
)

type Shape interface {
	Area() float64
}

type Circle struct {
	Radius float64
}

func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

type Square struct {
	Side float64
}

func (s *Square) Area() float64 { return s.Side * s.Side }

type Unrelated struct {
	Name string
}

type Color uint8

const (
	Red Color = iota
	Green
	Blue
)

type Line struct {
	Sku   string
	Qty   int32
	Price float64
}

type Order struct {
	ID       uint64
	Customer string
	Created  time.Time
	Lines    []Line
	Tags     map[string]string
	Note     *string
	Shape    Shape
	Status   Color
	Secret   string `binser:"-"`
	Renamed  int    `binser:"renamed"`
	internal int
}

type Base struct {
	ID   int64
	Kind string
}

type Derived struct {
	Base
	Name string
}

type Account struct {
	Owner   string
	balance int64
}

func (a *Account) Balance() int64     { return a.balance }
func (a *Account) SetBalance(v int64) { a.balance = v }

type Fragile struct {
	Name string
}

func (f *Fragile) Risky() int  { panic("boom") }
func (f *Fragile) SetRisky(int) {}

type Picky struct {
	Name  string
	level int
}

func (p *Picky) Level() int { return p.level }

func (p *Picky) SetLevel(v int) {
	if v < 0 {
		panic("negative level")
	}
	p.level = v
}

type Node struct {
	Val  int32
	Next *Node
}

type Box struct {
	Label string
	Item  Shape
	Any   any
}

func init() {
	MustRegister[Circle](DefaultRegistry(), "test.Circle")
	MustRegister[Square](DefaultRegistry(), "test.Square")
	MustRegister[Unrelated](DefaultRegistry(), "test.Unrelated")
	MustRegister[Line](DefaultRegistry(), "test.Line")
	if err := RegisterEnum[Color](DefaultRegistry()); err != nil {
		panic(err)
	}
}
