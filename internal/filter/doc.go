// Package filter implements the chunk filter pipeline.
//
// Filters transform chunk data between its raw in-memory form and the
// form stored by the engine. Writing applies the pipeline in order;
// reading applies it in reverse order (last filter first).
//
// # Supported Filters
//
//   - DEFLATE (ID 1): zlib compression via [Deflate].
//   - Shuffle (ID 2): byte shuffling via [Shuffle]. Groups same-position
//     bytes of consecutive elements together so compressors that follow
//     see longer runs.
//   - Fletcher32 (ID 3): checksum via [Fletcher32]. Appends a 32-bit
//     Fletcher checksum on write and verifies it on read.
//   - LZ4 (ID 32004): fast block compression via [LZ4].
//   - Zstandard (ID 32015): block compression via [Zstd].
//
// SZIP (ID 4), N-bit (ID 5) and scale-offset (ID 6) are recognized but
// not implemented; [New] reports them by name.
//
// # Usage
//
// A [Pipeline] is built from the []Info recorded in dataset metadata:
//
//	pipeline, err := filter.NewPipeline(params.Filters)
//	stored, err := pipeline.Encode(rawChunk)
//	raw, err := pipeline.Decode(storedChunk)
//
// A typical configuration is [shuffle, compressor, fletcher32]: the
// checksum then covers the compressed bytes, and decoding verifies it
// before spending time on decompression.
package filter
