//go:build !ffmpeg_embedded

package ffmpeg

import "io"

// builds without the ffmpeg_embedded tag carry no bundle
func openEmbeddedAsset(string) (io.ReadCloser, bool, error) {
	return nil, false, nil
}
