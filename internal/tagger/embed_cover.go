// file: internal/tagger/embed_cover.go
// version: 2.0.0
// guid: 7d8e9f0a-1b2c-3d4e-5f6a-7b8c9d0e1f2a

package tagger

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrToolNotFound is returned when the required external tool is not installed.
var ErrToolNotFound = fmt.Errorf("required external tool not found")

// findTool checks if a command-line tool exists on the system PATH.
func findTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return path, nil
}

// EmbedCoverArt embeds a cover image into an audio file's tags. MP3, M4A/M4B
// and OGG go through ffmpeg; FLAC uses metaflac. The original file is
// replaced atomically via a temp file rename.
func EmbedCoverArt(audioPath string, coverPath string) error {
	if audioPath == "" {
		return fmt.Errorf("empty audio path")
	}
	if coverPath == "" {
		return fmt.Errorf("empty cover path")
	}
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}
	if _, err := os.Stat(coverPath); err != nil {
		return fmt.Errorf("cover file not found: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(audioPath))
	switch ext {
	case ".mp3":
		return embedWithFFmpeg(audioPath, coverPath, "mp3")
	case ".m4b", ".m4a", ".aac":
		return embedWithFFmpeg(audioPath, coverPath, "mp4")
	case ".ogg":
		return embedWithFFmpeg(audioPath, coverPath, "ogg")
	case ".flac":
		return embedWithMetaflac(audioPath, coverPath)
	default:
		return fmt.Errorf("unsupported audio format for cover embedding: %s", ext)
	}
}

// embedWithFFmpeg writes an ID3v2 APIC frame (mp3) or a covr atom (mp4)
// without re-encoding the audio stream.
func embedWithFFmpeg(audioPath, coverPath, format string) error {
	ffmpegPath, err := findTool("ffmpeg")
	if err != nil {
		return err
	}

	tmpFile := audioPath + ".tmp" + filepath.Ext(audioPath)
	defer os.Remove(tmpFile)

	args := []string{
		"-y",
		"-i", audioPath,
		"-i", coverPath,
		"-map", "0",
		"-map", "1",
		"-c", "copy",
		"-disposition:v:0", "attached_pic",
	}
	if format == "mp4" {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, tmpFile)

	cmd := exec.Command(ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\noutput: %s", err, string(output))
	}

	if err := os.Rename(tmpFile, audioPath); err != nil {
		return fmt.Errorf("failed to replace original file: %w", err)
	}

	log.Printf("[DEBUG] tagger: embedded cover art from %s into %s", coverPath, audioPath)
	return nil
}

// embedWithMetaflac replaces any existing PICTURE block with the new cover.
func embedWithMetaflac(audioPath, coverPath string) error {
	metaflacPath, err := findTool("metaflac")
	if err != nil {
		return err
	}

	removeCmd := exec.Command(metaflacPath, "--remove", "--block-type=PICTURE", audioPath)
	if output, err := removeCmd.CombinedOutput(); err != nil {
		// Not fatal, the file may not have had a picture.
		log.Printf("[WARN] tagger: metaflac --remove PICTURE failed: %s", string(output))
	}

	importCmd := exec.Command(metaflacPath, "--import-picture-from="+coverPath, audioPath)
	output, err := importCmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("metaflac --import-picture failed: %w\noutput: %s", err, string(output))
	}

	log.Printf("[DEBUG] tagger: embedded cover art from %s into %s (FLAC)", coverPath, audioPath)
	return nil
}
