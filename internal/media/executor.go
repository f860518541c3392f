package media

import (
	"context"

	"github.com/lrstanley/go-ytdlp"
)

// Executor runs a prepared yt-dlp command against target and returns the
// info documents it printed. Tests substitute a stub.
type Executor interface {
	Run(ctx context.Context, cmd *ytdlp.Command, target string) ([]*ytdlp.ExtractedInfo, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, cmd *ytdlp.Command, target string) ([]*ytdlp.ExtractedInfo, error) {
	result, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, err
	}
	return result.GetExtractedInfo()
}
