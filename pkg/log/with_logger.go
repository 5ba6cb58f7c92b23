package log

import "go.uber.org/atomic"

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 由持有组件级 Logger 的类型实现，例如 binser.Codec 与网络编解码管线。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 允许调用方替换组件级 Logger。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到编解码组件中。零值可用：未绑定 Logger 时使用全局 Logger，
// 设置了组件名时附带 component 字段。
type Binder struct {
	logger    atomic.Pointer[MLogger]
	component atomic.String
}

// SetLogger 绑定显式的 Logger，之后 Logger 总是返回它。
func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

// SetComponent 设置未绑定 Logger 时附带的组件名。
// 回退的 Logger 每次从全局 Logger 派生，因此 InitLogger 之后的替换同样生效。
func (w *Binder) SetComponent(component string) {
	w.component.Store(component)
}

// Logger 返回绑定的 Logger，未绑定时从全局 Logger 派生。
func (w *Binder) Logger() *MLogger {
	if l := w.logger.Load(); l != nil {
		return l
	}
	if c := w.component.Load(); c != "" {
		return With(FieldComponent(c))
	}
	return With()
}
