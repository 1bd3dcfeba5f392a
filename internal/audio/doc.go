// Package audio holds the PCM buffer the timeline is built from, an ffmpeg
// backed codec for decoding synthesized clips and encoding the finished
// track, and an oto player for previews.
package audio
