package log

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type countingLimiter struct {
	allow int
	calls int
}

func (c *countingLimiter) CheckCredit(float64) bool {
	c.calls++
	return c.calls <= c.allow
}

func TestInitLoggerWithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Level:  "debug",
		Format: "json",
		File: FileLogConfig{
			RootPath: dir,
			Filename: "binser.log",
		},
	}

	lg, props, err := InitLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, props)
	assert.Equal(t, zapcore.DebugLevel, props.Level.Level())
	assert.Equal(t, defaultLogMaxSize, cfg.File.MaxSize)

	lg.Info("decoded value", FieldMember("Order.Lines"))
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "binser.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"member":"Order.Lines"`)
}

func TestInitLoggerRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "logs"), 0o755))

	_, _, err := InitLogger(&Config{File: FileLogConfig{RootPath: dir, Filename: "logs"}})
	assert.Error(t, err)
}

func TestInitLoggerBadLevel(t *testing.T) {
	_, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(os.Stderr))
	assert.Error(t, err)
}

func TestInitTestLogger(t *testing.T) {
	lg, props, err := InitTestLogger(t, &Config{Level: "trace"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, props.Level.Level())
	lg.Debug("routed to testing.T", FieldType(nil))
}

func TestCtxLogger(t *testing.T) {
	ctx := WithModule(context.Background(), "binser")
	l := Ctx(ctx)
	require.NotNil(t, l)
	assert.Same(t, l, Ctx(ctx))

	plain := Ctx(context.Background())
	assert.NotSame(t, l, plain)
}

func TestSetLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(zapcore.ErrorLevel)
	assert.Equal(t, zapcore.ErrorLevel, GetLevel())
	assert.Equal(t, zapcore.ErrorLevel, Level().Level())
}

func TestRatedLogging(t *testing.T) {
	limiter := &countingLimiter{allow: 1}
	SetRateLimiter(limiter)
	defer SetRateLimiter(nil)

	l := With(zap.String("case", "rated"))
	assert.True(t, l.RatedWarn(1, "first"))
	assert.False(t, l.RatedWarn(1, "second"))
	assert.False(t, RatedWarn(1, "third"))
	assert.Equal(t, 3, limiter.calls)
}

func TestRateGroupIsShared(t *testing.T) {
	a := With().WithRateGroup("binser.skip", 1, 1)
	b := With().WithRateGroup("binser.skip", 1, 1)
	assert.Same(t, a.rl.Load(), b.rl.Load())

	assert.True(t, a.RatedInfo(1, "consumes the only credit"))
	assert.False(t, b.RatedDebug(1, "shares the drained balance"))

	child := a.With(zap.Int("n", 1))
	assert.Same(t, a.rl.Load(), child.rl.Load())
}

func TestBinder(t *testing.T) {
	var b Binder
	assert.NotNil(t, b.Logger())

	b.SetComponent("binser")
	first, second := b.Logger(), b.Logger()
	assert.NotNil(t, first)
	assert.NotSame(t, first, second)

	l := With(FieldComponent("decoder"))
	b.SetLogger(l)
	assert.Same(t, l, b.Logger())
}
