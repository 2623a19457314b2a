package fatxtest

import (
	"time"

	fatx "github.com/aligator/gofatx"
)

// Times used by the sample image. Later means more recently accessed.
var (
	Earlier = time.Date(2012, time.March, 4, 10, 20, 30, 0, time.UTC)
	Later   = time.Date(2014, time.July, 23, 11, 55, 12, 0, time.UTC)
)

// SampleLength is the partition length of Sample: 128 clusters of 512 bytes.
const SampleLength = 64 * 1024

// Sample builds a small partition with live, deleted and overwritten files plus
// carvable data without any directory entry:
//
//  cluster 1 (root)
//   0 Content/            first 2, live
//   1 default.xex         first 3, 600 bytes, chain 3->4, live
//   2 old.wav             first 5, 700 bytes, deleted, untouched clusters
//   3 gone.bin            first 3, 1000 bytes, deleted, clusters fully reused by default.xex
//   4 partial.bin         first 12, 1000 bytes, deleted, cluster 12 reused by a later file
//   5 xdk_data.tmp        first 3, huge, deleted, on the blocklist
//  cluster 2 (Content)
//   0 save.dat            first 7, 100 bytes, live
//   1 Cache/              first 8, deleted
//  cluster 8 (orphaned Cache)
//   0 cached.bin          first 9, 1500 bytes, accessed later than older.bin
//   1 tiny                first 12, 10 bytes, accessed later than partial.bin
//   2 older.bin           first 11, 400 bytes
//  cluster 20  XBE "default.exe" of 0x400 bytes
//  cluster 24  XPR of 0x300 bytes
//  cluster 26  PE of 0x500 bytes
func Sample(platform fatx.Platform) *Image {
	img := NewImage(platform, 1, SampleLength)

	img.WriteEntry(1, 0, Entry(platform, "Content", fatx.AttrDirectory, 2, 0, Earlier))
	img.Chain(2)
	img.WriteEntry(1, 1, Entry(platform, "default.xex", fatx.AttrArchive, 3, 600, Later))
	img.Chain(3, 4)
	img.WriteData(3, append([]byte("XEX2"), make([]byte, 596)...))

	img.WriteEntry(1, 2, Deleted(Entry(platform, "old.wav", 0, 5, 700, Earlier)))
	img.WriteData(5, WAV(700))

	img.WriteEntry(1, 3, Deleted(Entry(platform, "gone.bin", 0, 3, 1000, Earlier)))
	img.WriteEntry(1, 4, Deleted(Entry(platform, "partial.bin", 0, 12, 1000, Earlier)))
	img.WriteEntry(1, 5, Deleted(Entry(platform, "xdk_data.tmp", 0, 3, 0x8000, Earlier)))

	img.WriteEntry(2, 0, Entry(platform, "save.dat", 0, 7, 100, Later))
	img.Chain(7)
	img.WriteData(7, []byte("savegame"))
	img.WriteEntry(2, 1, Deleted(Entry(platform, "Cache", fatx.AttrDirectory, 8, 0, Earlier)))

	img.WriteEntry(8, 0, Accessed(Entry(platform, "cached.bin", 0, 9, 1500, Earlier), Later, platform))
	img.WriteEntry(8, 1, Accessed(Entry(platform, "tiny", 0, 12, 10, Earlier), Later, platform))
	img.WriteEntry(8, 2, Entry(platform, "older.bin", 0, 11, 400, Earlier))

	img.WriteData(20, XBE("default.exe", 0x400))
	img.WriteData(24, XPR(0x300))
	img.WriteData(26, PE())

	return img
}
