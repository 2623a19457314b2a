package fatx_test

import (
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/internal/fatxtest"
)

// TestGoFS tests the own compatibility layer to io.FS.
func TestGoFS(t *testing.T) {
	for _, platform := range platforms {
		t.Run(platform.String(), func(t *testing.T) {
			gofs := fatx.GoFs{Fs: testingNew(t, platform)}
			if err := fstest.TestFS(gofs, "default.xex", "Content/save.dat"); err != nil {
				t.Fatal(err)
			}
		})
	}
}

// TestIOFS tests the use with the afero.IOFS compatibility layer to io.FS.
func TestIOFS(t *testing.T) {
	for _, platform := range platforms {
		t.Run(platform.String(), func(t *testing.T) {
			iofs := afero.IOFS{Fs: testingNew(t, platform)}
			if err := fstest.TestFS(iofs, "default.xex", "Content/save.dat"); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestNewGoFS(t *testing.T) {
	type args struct {
		reader   io.ReadSeeker
		platform fatx.Platform
	}
	tests := []struct {
		name       string
		args       args
		wantNotNil bool
		wantErr    bool
	}{
		{
			name: "Xbox test image",
			args: args{
				reader:   fatxtest.Sample(fatx.Xbox).Reader(),
				platform: fatx.Xbox,
			},
			wantNotNil: true,
			wantErr:    false,
		},
		{
			name: "Xbox 360 test image",
			args: args{
				reader:   fatxtest.Sample(fatx.Xbox360).Reader(),
				platform: fatx.Xbox360,
			},
			wantNotNil: true,
			wantErr:    false,
		},
		{
			name: "no FATX file",
			args: args{
				reader: strings.NewReader("This is no FATX file"),
			},
			wantNotNil: false,
			wantErr:    true,
		},
		{
			name: "invalid sectors per cluster",
			args: args{
				reader: invalidSectorsPerCluster(),
			},
			wantNotNil: false,
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			got, err := fatx.NewGoFS(tt.args.reader, fatx.Options{Platform: tt.args.platform, Logger: log})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGoFS() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if (got != nil) != tt.wantNotNil {
				t.Errorf("NewGoFS() = %v, wantNotNil %v", got, tt.wantNotNil)
			}
		})
	}
}

func TestNewIOFS(t *testing.T) {
	type args struct {
		reader   io.ReadSeeker
		platform fatx.Platform
	}
	tests := []struct {
		name         string
		args         args
		wantNotEmpty bool
		wantErr      bool
	}{
		{
			name: "Xbox 360 test image",
			args: args{
				reader:   fatxtest.Sample(fatx.Xbox360).Reader(),
				platform: fatx.Xbox360,
			},
			wantNotEmpty: true,
			wantErr:      false,
		},
		{
			name: "no FATX file",
			args: args{
				reader: strings.NewReader("This is no FATX file"),
			},
			wantNotEmpty: false,
			wantErr:      true,
		},
		{
			name: "invalid sectors per cluster",
			args: args{
				reader: invalidSectorsPerCluster(),
			},
			wantNotEmpty: false,
			wantErr:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			got, err := fatx.NewIOFS(tt.args.reader, fatx.Options{Platform: tt.args.platform, Logger: log})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewIOFS() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if (got != (afero.IOFS{})) != tt.wantNotEmpty {
				t.Errorf("NewIOFS() = %v, wantNotEmpty %v", got, tt.wantNotEmpty)
			}
		})
	}
}

// invalidSectorsPerCluster returns a little endian image whose superblock claims 0 sectors per cluster.
func invalidSectorsPerCluster() io.ReadSeeker {
	data := fatxtest.Sample(fatx.Xbox).Bytes()
	copy(data[8:12], []byte{0, 0, 0, 0})
	return strings.NewReader(string(data))
}
