package stt_test

import (
	"github.com/lucerovega/mirada/server/adapters/stt"
	"github.com/lucerovega/mirada/server/domain/repositories"
)

var _ repositories.Transcriber = &stt.GoogleTranscriber{}
