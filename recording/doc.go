// Package recording renders video frames through the film look and hands
// them to a video writer.
//
// A Recorder renders each appended frame synchronously at Capture tier, in
// append order, and passes the filtered buffer with its timestamp to a
// VideoWriter. Nothing is reordered or dropped. The first error stops the
// recording: every later call returns it, and so does Close.
//
// # Writers
//
// Writers are created by name through a registry, following the
// database/sql driver pattern:
//
//	import _ "github.com/gogpu/filmlook/recording/writers/y4m"
//
//	w, err := recording.NewWriter("y4m", file, recording.WriterConfig{
//	    Width: 1280, Height: 720, FPS: 30,
//	})
//	rec := recording.NewRecorder(engine, p, w)
//	for frame := range frames {
//	    if err := rec.Append(frame.Texture, frame.PTS); err != nil {
//	        break
//	    }
//	}
//	err = rec.Close()
//
// Built-in writers:
//   - "mjpeg": concatenated JPEG frames (Motion JPEG elementary stream)
//   - "y4m": uncompressed YUV4MPEG2 with 4:4:4 chroma
//
// MemoryWriter keeps frames in memory for callers that encode themselves.
package recording
