package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir(), map[AssetType]string{
		AssetTypeMetadata: "metadata",
		AssetTypePending:  "metadata-pending",
		AssetTypeData:     "data",
	})
	require.NoError(t, err)
	return store
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestLocalStorageSaveGetDelete(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save(AssetTypeData, "desktop", "index.json", bytes.NewReader([]byte(`{"a":1}`)))
	require.NoError(t, err)
	assert.Equal(t, "data/desktop/index.json", rel)

	rc, info, err := store.Get(AssetTypeData, "desktop/index.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.EqualValues(t, 7, info.Size())

	require.NoError(t, store.Delete(AssetTypeData, "desktop/index.json"))
	_, _, err = store.Get(AssetTypeData, "desktop/index.json")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// deleting twice is fine
	assert.NoError(t, store.Delete(AssetTypeData, "desktop/index.json"))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetFullPath(AssetTypeData, "../../etc/passwd")
	assert.Error(t, err)

	_, err = store.Save(AssetTypeData, "../outside", "x.json", bytes.NewReader(nil))
	assert.Error(t, err)

	_, err = store.Save(AssetTypeData, "", "", bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestLocalStorageList(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"b.json", "a.json", "c.txt"} {
		_, err := store.Save(AssetTypePending, "", name, bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
	}
	dir, err := store.EnsureDir(AssetTypePending)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	names, err := store.List(AssetTypePending, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "c.txt"}, names)

	_, err = store.List(AssetTypeData, "missing")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestJSONHelpers(t *testing.T) {
	store := newTestStore(t)

	_, err := WriteJSON(store, AssetTypeMetadata, "", "desktop.json", map[string]any{"name": "<壁纸>"})
	require.NoError(t, err)

	full, err := store.GetFullPath(AssetTypeMetadata, "desktop.json")
	require.NoError(t, err)
	raw, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"<壁纸>\"\n}", string(raw))

	var out map[string]string
	require.NoError(t, ReadJSON(store, AssetTypeMetadata, "desktop.json", &out))
	assert.Equal(t, "<壁纸>", out["name"])

	err = ReadJSON(store, AssetTypeMetadata, "mobile.json", &out)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestResolutionTier(t *testing.T) {
	cases := []struct {
		w, h  int
		label string
		kind  string
	}{
		{15360, 8640, "16K", "danger"},
		{7680, 4320, "8K", "danger"},
		{5120, 2880, "5K+", "danger"},
		{4096, 2160, "4K+", "warning"},
		{3840, 2160, "4K", "success"},
		{2560, 1440, "2K", "info"},
		{1080, 1920, "超清", "primary"},
		{1280, 720, "高清", "secondary"},
		{800, 600, "标清", "secondary"},
	}
	for _, c := range cases {
		label, kind := ResolutionTier(c.w, c.h)
		assert.Equal(t, c.label, label, "%dx%d", c.w, c.h)
		assert.Equal(t, c.kind, kind, "%dx%d", c.w, c.h)
	}

	assert.Nil(t, NewResolution(Dimensions{Width: 0, Height: 10}))
	res := NewResolution(Dimensions{Width: 3840, Height: 2160})
	require.NotNil(t, res)
	assert.Equal(t, "4K", res.Label)
}

func TestNativeProber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 40, 30)

	dims, ok := NativeProber{}.Probe(path)
	require.True(t, ok)
	assert.Equal(t, Dimensions{Width: 40, Height: 30}, dims)

	garbage := filepath.Join(t.TempDir(), "b.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))
	_, ok = NativeProber{}.Probe(garbage)
	assert.False(t, ok)
}

func TestExternalProberParsesOutput(t *testing.T) {
	var gotArgs []string
	p := &ExternalProber{
		command: []string{"magick", "identify"},
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = append([]string{name}, args...)
			return []byte("1920 1080"), nil
		},
	}
	dims, ok := p.Probe("/x/a.jpg")
	require.True(t, ok)
	assert.Equal(t, Dimensions{Width: 1920, Height: 1080}, dims)
	assert.Equal(t, []string{"magick", "identify", "-format", "%w %h", "/x/a.jpg[0]"}, gotArgs)

	p.run = func(context.Context, string, ...string) ([]byte, error) { return []byte("garbage"), nil }
	_, ok = p.Probe("/x/a.jpg")
	assert.False(t, ok)

	p.run = func(context.Context, string, ...string) ([]byte, error) { return nil, errors.New("exit 1") }
	_, ok = p.Probe("/x/a.jpg")
	assert.False(t, ok)
}

func TestNewProber(t *testing.T) {
	p, err := NewProber("native")
	require.NoError(t, err)
	assert.IsType(t, NativeProber{}, p)

	p, err = NewProber("none")
	require.NoError(t, err)
	assert.IsType(t, NoopProber{}, p)

	_, err = NewProber("gpu")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writePNG(t, path, 2560, 1440)

	res, size := Inspect(NativeProber{}, path)
	require.NotNil(t, res)
	assert.Equal(t, "2K", res.Label)
	assert.Greater(t, size, int64(0))

	res, size = Inspect(NoopProber{}, path)
	assert.Nil(t, res)
	assert.Greater(t, size, int64(0))

	res, size = Inspect(NativeProber{}, filepath.Join(dir, "missing.png"))
	assert.Nil(t, res)
	assert.Zero(t, size)

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0644))
	res, size = Inspect(NativeProber{}, notes)
	assert.Nil(t, res)
	assert.Equal(t, int64(5), size)

	// extensions the native decoders skip still reach an external prober
	avif := filepath.Join(dir, "b.avif")
	require.NoError(t, os.WriteFile(avif, []byte("avif"), 0644))
	var probed []string
	external := &ExternalProber{
		command: []string{"magick", "identify"},
		run: func(_ context.Context, _ string, args ...string) ([]byte, error) {
			probed = append(probed, args[len(args)-1])
			return []byte("3840 2160"), nil
		},
	}
	res, size = Inspect(external, avif)
	require.NotNil(t, res)
	assert.Equal(t, "4K", res.Label)
	assert.Equal(t, int64(4), size)
	assert.Equal(t, []string{avif + "[0]"}, probed)

	_, ok := NativeProber{}.Probe(avif)
	assert.False(t, ok)
}
