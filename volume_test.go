package fatx_test

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/internal/fatxtest"
)

func mount(t *testing.T, img *fatxtest.Image) (*fatx.Volume, error) {
	t.Helper()
	source, err := fatx.NewSource(img.Reader(), 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	log, _ := test.NewNullLogger()
	return fatx.Mount(source, fatx.Options{Platform: img.Platform, Logger: log})
}

func TestMount(t *testing.T) {
	for _, platform := range platforms {
		t.Run(platform.String(), func(t *testing.T) {
			v, err := mount(t, fatxtest.Sample(platform))
			if err != nil {
				t.Fatalf("Mount() error = %v", err)
			}

			want := fatx.Superblock{
				Signature:           fatx.SuperblockMagic,
				SerialNumber:        0x1234ABCD,
				SectorsPerCluster:   1,
				RootDirFirstCluster: 1,
			}
			if v.Superblock != want {
				t.Errorf("Superblock = %+v, want %+v", v.Superblock, want)
			}
			if v.Geometry.MaxClusters != 129 || v.Geometry.FileAreaOffset != 0x2000 || v.Geometry.FatEntryWidth != 2 {
				t.Errorf("Geometry = %+v", v.Geometry)
			}

			// Clusters 1, 2, 3, 4 and 7 are allocated.
			if v.UsedSpace() != 5*512 {
				t.Errorf("UsedSpace() = %v, want %v", v.UsedSpace(), 5*512)
			}
			if v.FreeSpace() != 123*512 {
				t.Errorf("FreeSpace() = %v, want %v", v.FreeSpace(), 123*512)
			}
		})
	}
}

func TestVolume_Tree(t *testing.T) {
	for _, platform := range platforms {
		t.Run(platform.String(), func(t *testing.T) {
			v, err := mount(t, fatxtest.Sample(platform))
			if err != nil {
				t.Fatalf("Mount() error = %v", err)
			}

			tree := v.Tree()
			var paths []string
			for i := 0; i < tree.Len(); i++ {
				paths = append(paths, tree.Path(i))
			}
			want := []string{
				"Content",
				"default.xex",
				"old.wav",
				"gone.bin",
				"partial.bin",
				"xdk_data.tmp",
				"Content/save.dat",
				"Content/Cache",
			}
			if !reflect.DeepEqual(paths, want) {
				t.Errorf("Tree() = %v, want %v", paths, want)
			}

			if roots := tree.Roots(); len(roots) != 6 {
				t.Errorf("Tree().Roots() = %v, want 6 roots", roots)
			}

			save := tree.Entry(6)
			if save.Offset != 0x2200 || save.Cluster != 2 || save.Parent != 0 {
				t.Errorf("save.dat at 0x%X in cluster %d with parent %d, want 0x2200, 2, 0", save.Offset, save.Cluster, save.Parent)
			}
			if !save.LastWriteTime.Time().Equal(fatxtest.Later) {
				t.Errorf("save.dat LastWriteTime = %v, want %v", save.LastWriteTime.Time(), fatxtest.Later)
			}

			// The deleted Cache directory is not followed by the live tree.
			if cache := tree.Entry(7); !cache.IsDeleted() || len(cache.Children) != 0 {
				t.Errorf("Cache = %v with children %v, want deleted without children", cache, cache.Children)
			}
		})
	}
}

func TestMount_corrupted(t *testing.T) {
	t.Run("directory pointing to the root", func(t *testing.T) {
		img := fatxtest.NewImage(fatx.Xbox, 1, fatxtest.SampleLength)
		img.WriteEntry(1, 0, fatxtest.Entry(fatx.Xbox, "loop", fatx.AttrDirectory, 1, 0, fatxtest.Earlier))

		v, err := mount(t, img)
		if err != nil {
			t.Fatalf("Mount() error = %v", err)
		}
		if v.Tree().Len() != 1 {
			t.Errorf("Tree().Len() = %v, want 1", v.Tree().Len())
		}
	})

	t.Run("directory chain with a cycle", func(t *testing.T) {
		img := fatxtest.NewImage(fatx.Xbox360, 1, fatxtest.SampleLength)
		img.WriteEntry(1, 0, fatxtest.Entry(fatx.Xbox360, "dir", fatx.AttrDirectory, 2, 0, fatxtest.Earlier))
		img.SetFat(2, 3)
		img.SetFat(3, 2)
		img.WriteEntry(2, 0, fatxtest.Entry(fatx.Xbox360, "file", 0, 4, 10, fatxtest.Earlier))
		img.WriteEntry(3, 0, fatxtest.Entry(fatx.Xbox360, "unreachable", 0, 5, 10, fatxtest.Earlier))

		v, err := mount(t, img)
		if err != nil {
			t.Fatalf("Mount() error = %v", err)
		}
		if got := v.Tree().Path(1); got != "dir/file" || v.Tree().Len() != 2 {
			t.Errorf("Tree() = %d entries, second %q, want dir/file only", v.Tree().Len(), got)
		}
	})

	t.Run("root cluster 0", func(t *testing.T) {
		img := fatxtest.NewImage(fatx.Xbox, 1, fatxtest.SampleLength)
		data := img.Bytes()
		copy(data[12:16], []byte{0, 0, 0, 0})

		source, err := fatx.NewSource(bytes.NewReader(data), 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		log, _ := test.NewNullLogger()
		if _, err := fatx.Mount(source, fatx.Options{Platform: fatx.Xbox, Logger: log}); !errors.Is(err, fatx.ErrIndexTree) {
			t.Errorf("Mount() error = %v, want %v", err, fatx.ErrIndexTree)
		}
	})
}

func TestVolume_Validator(t *testing.T) {
	v, err := mount(t, fatxtest.Sample(fatx.Xbox))
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	validator := v.Validator(func() time.Time { return now })
	if validator.MaxClusters != 129 || validator.Platform != fatx.Xbox || !validator.Now.Equal(now) {
		t.Errorf("Validator() = %+v", validator)
	}

	if validator := v.Validator(nil); validator.Now.IsZero() {
		t.Errorf("Validator(nil).Now is zero, want the current time")
	}
}
