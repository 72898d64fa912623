package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/mlflow-aws/internal/storage"
)

func newTestResolver(t *testing.T, env Env) (*Resolver, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	return NewResolver(storage.NewFileStore(path), env, WithLogger(zaptest.NewLogger(t))), path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestGetReturnsDefaultsForFreshStore(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, nil)
	for _, k := range DefaultKeys() {
		got, err := r.Get(k.Name)
		if err != nil {
			t.Fatalf("Get(%s) returned error: %v", k.Name, err)
		}
		if !got.Equal(k.Default) {
			t.Fatalf("Get(%s) = %v, want default %v", k.Name, got, k.Default)
		}
	}
}

func TestGetUnknownKey(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, nil)
	_, err := r.Get("NOT_A_KEY")

	var unknown *UnknownKeyError
	if !errors.As(err, &unknown) || unknown.Key != "NOT_A_KEY" {
		t.Fatalf("expected UnknownKeyError, got %v", err)
	}
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected errors.Is ErrUnknownKey")
	}
}

func TestRetryAttemptsLifecycle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config")
	store := storage.NewFileStore(path)

	r := NewResolver(store, nil)
	if err := r.Set(RetryAttempts, "5"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := r.Int(RetryAttempts); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}

	withEnv := NewResolver(store, Env{RetryAttempts: "7"})
	if got := withEnv.Int(RetryAttempts); got != 7 {
		t.Fatalf("expected env override 7, got %d", got)
	}

	cleared := NewResolver(store, Env{RetryAttempts: ""})
	if got := cleared.Int(RetryAttempts); got != 5 {
		t.Fatalf("expected stored 5 once env is empty, got %d", got)
	}

	if err := r.Unset(RetryAttempts); err != nil {
		t.Fatalf("Unset returned error: %v", err)
	}
	if got := r.Int(RetryAttempts); got != 3 {
		t.Fatalf("expected default 3 after unset, got %d", got)
	}
	if got := NewResolver(store, nil).Int(RetryAttempts); got != 3 {
		t.Fatalf("expected unset to be persisted, got %d", got)
	}
}

func TestSetRoundTripsEveryType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		raw  string
		want Value
	}{
		{key: RetryAttempts, raw: " 9 ", want: IntValue(9)},
		{key: Debug, raw: "YES", want: BoolValue(true)},
		{key: TrackingURI, raw: "http://mlflow:5000/", want: StringValue("http://mlflow:5000/")},
		{key: LambdaLayers, raw: "arn:a, arn:b,,", want: ListValue("arn:a", "arn:b")},
		{key: GatewayID, raw: "", want: StringValue("")},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.key, func(t *testing.T) {
			t.Parallel()

			r, path := newTestResolver(t, nil)
			if err := r.Set(tc.key, tc.raw); err != nil {
				t.Fatalf("Set returned error: %v", err)
			}

			fresh := NewResolver(storage.NewFileStore(path), nil)
			got, err := fresh.Get(tc.key)
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSetDefaultValueRemovesOverride(t *testing.T) {
	t.Parallel()

	r, path := newTestResolver(t, nil)
	if err := r.Set(RetryAttempts, "5"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if !strings.Contains(readFile(t, path), RetryAttempts) {
		t.Fatalf("expected override in file")
	}

	if err := r.Set(RetryAttempts, "3"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if strings.Contains(readFile(t, path), RetryAttempts) {
		t.Fatalf("expected override to be removed, file:\n%s", readFile(t, path))
	}
	for _, e := range r.List() {
		if e.Key.Name == RetryAttempts && !e.IsDefault {
			t.Fatalf("expected %s to be reported as default", RetryAttempts)
		}
	}
}

func TestSetDefaultOnFreshStoreWritesNothing(t *testing.T) {
	t.Parallel()

	r, path := newTestResolver(t, nil)
	if err := r.Set(Debug, "false"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created, stat err: %v", err)
	}
}

func TestSetTypeMismatch(t *testing.T) {
	t.Parallel()

	r, path := newTestResolver(t, nil)

	for key, raw := range map[string]string{RetryAttempts: "three", Debug: "maybe"} {
		err := r.Set(key, raw)
		var mismatch *TypeMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Set(%s, %q): expected TypeMismatchError, got %v", key, raw, err)
		}
		if mismatch.Key != key {
			t.Fatalf("expected key %s, got %s", key, mismatch.Key)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to stay absent")
	}
}

func TestUnsetIsIdempotent(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, nil)
	for i := 0; i < 2; i++ {
		if err := r.Unset(Debug); err != nil {
			t.Fatalf("Unset #%d returned error: %v", i, err)
		}
	}
	if err := r.Unset("NOPE"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestBooleanUnsetIsNotFalse(t *testing.T) {
	t.Parallel()

	keys := []Key{{Name: "FLAG", Type: TypeBool, Default: Unset}}
	r := NewResolver(storage.NewFileStore(filepath.Join(t.TempDir(), "c")), nil, WithKeys(keys))

	got, err := r.Get("FLAG")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.IsSet() || got.Equal(BoolValue(false)) {
		t.Fatalf("expected unset value, got %v", got)
	}

	if err := r.Set("FLAG", "false"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, _ = r.Get("FLAG")
	if !got.IsSet() || got.Bool() {
		t.Fatalf("expected explicit false, got %v", got)
	}
}

func TestListMarksOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config")
	store := storage.NewFileStore(path)
	if err := NewResolver(store, nil).Set(LambdaRAM, "512"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	// env equal to the default still counts as an override
	r := NewResolver(store, Env{Debug: "false", MaxTableWidth: "80"})
	entries := r.List()

	if len(entries) != len(DefaultKeys()) {
		t.Fatalf("expected %d entries, got %d", len(DefaultKeys()), len(entries))
	}
	for i, k := range DefaultKeys() {
		if entries[i].Key.Name != k.Name {
			t.Fatalf("entry %d: expected %s, got %s", i, k.Name, entries[i].Key.Name)
		}
	}

	want := map[string]Source{LambdaRAM: SourceFile, Debug: SourceEnv, MaxTableWidth: SourceEnv}
	for _, e := range entries {
		src, overridden := want[e.Key.Name]
		if e.IsDefault == overridden {
			t.Fatalf("%s: IsDefault=%v, expected %v", e.Key.Name, e.IsDefault, !overridden)
		}
		if overridden && e.Source != src {
			t.Fatalf("%s: expected source %s, got %s", e.Key.Name, src, e.Source)
		}
	}
}

func TestMalformedLineIsSkippedWithWarning(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config")
	content := "[general]\nthis is not valid\nRETRY_ATTEMPTS = 6\nDEBUG = perhaps\nOLD_KEY = 1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	r := NewResolver(storage.NewFileStore(path), nil, WithLogger(zap.New(core)))

	if got := r.Int(RetryAttempts); got != 6 {
		t.Fatalf("expected 6 from valid line, got %d", got)
	}
	if got, _ := r.Get(Debug); !got.Equal(BoolValue(false)) {
		t.Fatalf("expected default for bad DEBUG, got %v", got)
	}

	warnings := r.Warnings()
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %+v", warnings)
	}
	if warnings[0].Line != 2 {
		t.Fatalf("expected first warning on line 2, got %d", warnings[0].Line)
	}
	if logs.FilterMessage("ignoring invalid configuration input").Len() != 3 {
		t.Fatalf("expected 3 logged warnings, got %d", logs.Len())
	}

	// rewriting keeps declared keys and drops the rest
	if err := r.Set(LambdaRAM, "1024"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got := readFile(t, path)
	if want := "[general]\nRETRY_ATTEMPTS = 6\nDEFAULT_LAMBDA_RAM = 1024\n"; got != want {
		t.Fatalf("unexpected file content:\n%s\nwant:\n%s", got, want)
	}
}

func TestInvalidEnvFallsBackToStored(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config")
	store := storage.NewFileStore(path)
	if err := NewResolver(store, nil).Set(RetryAttempts, "4"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	r := NewResolver(store, Env{RetryAttempts: "lots"})
	if got := r.Int(RetryAttempts); got != 4 {
		t.Fatalf("expected stored value 4, got %d", got)
	}
	_ = r.Int(RetryAttempts)
	if n := len(r.Warnings()); n != 1 {
		t.Fatalf("expected a single warning, got %d", n)
	}
}

type failingStore struct {
	path string
}

func (s failingStore) Load() (*storage.Document, error) { return &storage.Document{}, nil }
func (s failingStore) Save([]storage.Entry) error      { return errors.New("disk full") }
func (s failingStore) Path() string                    { return s.path }

func TestStoreWriteErrorLeavesValueUnchanged(t *testing.T) {
	t.Parallel()

	r := NewResolver(failingStore{path: "/nowhere/config"}, nil)
	err := r.Set(RetryAttempts, "8")

	var writeErr *StoreWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StoreWriteError, got %v", err)
	}
	if writeErr.Path != "/nowhere/config" {
		t.Fatalf("unexpected path %s", writeErr.Path)
	}
	if got := r.Int(RetryAttempts); got != 3 {
		t.Fatalf("expected mutation to be rolled back, got %d", got)
	}
}

type unreadableStore struct {
	failingStore
}

func (s unreadableStore) Load() (*storage.Document, error) { return nil, errors.New("permission denied") }

func TestUnreadableStoreBlocksWrites(t *testing.T) {
	t.Parallel()

	r := NewResolver(unreadableStore{failingStore{path: "/locked/config"}}, nil)
	if got := r.Int(LambdaRAM); got != 256 {
		t.Fatalf("expected default 256, got %d", got)
	}

	var writeErr *StoreWriteError
	if err := r.Set(LambdaRAM, "512"); !errors.As(err, &writeErr) {
		t.Fatalf("expected StoreWriteError, got %v", err)
	}
	if n := len(r.Warnings()); n != 1 {
		t.Fatalf("expected one warning, got %d", n)
	}
}

func TestSetRejectsLineBreaks(t *testing.T) {
	t.Parallel()

	r, path := newTestResolver(t, nil)
	err := r.Set(GatewayID, "abc\nDEBUG = true")

	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) || mismatch.Key != GatewayID {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("rejected value must not create the file")
	}

	fresh := NewResolver(storage.NewFileStore(path), nil)
	if fresh.Bool(Debug) {
		t.Fatalf("DEBUG must not be injected through another key")
	}
}

func TestPaddedStringMatchesAfterReload(t *testing.T) {
	t.Parallel()

	r, path := newTestResolver(t, nil)
	if err := r.Set(GatewayStage, "  prod  "); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	before := r.String(GatewayStage)

	after := NewResolver(storage.NewFileStore(path), nil).String(GatewayStage)
	if before != "prod" || after != before {
		t.Fatalf("expected prod before and after reload, got %q and %q", before, after)
	}
}

func TestVeryLongValueKeepsLaterOverrides(t *testing.T) {
	t.Parallel()

	r, path := newTestResolver(t, nil)
	long := strings.Repeat("a", 70000)
	if err := r.Set(LambdaARN, long); err != nil {
		t.Fatalf("Set(%s) returned error: %v", LambdaARN, err)
	}
	if err := r.Set(LambdaRAM, "512"); err != nil {
		t.Fatalf("Set(%s) returned error: %v", LambdaRAM, err)
	}

	fresh := NewResolver(storage.NewFileStore(path), nil)
	if got := fresh.Int(LambdaRAM); got != 512 {
		t.Fatalf("expected 512, got %d", got)
	}
	if got := fresh.String(LambdaARN); len(got) != len(long) {
		t.Fatalf("expected %d byte ARN, got %d", len(long), len(got))
	}
	if w := fresh.Warnings(); len(w) != 0 {
		t.Fatalf("unexpected warnings %+v", w)
	}
}

func TestLocationDoesNotRequireFile(t *testing.T) {
	t.Parallel()

	r, path := newTestResolver(t, nil)
	if r.Location() != path {
		t.Fatalf("expected %s, got %s", path, r.Location())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Location must not create the file")
	}
}
