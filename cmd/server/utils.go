package main

import (
	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func newResponse(record string) *v1.SpawnResponse {
	return &v1.SpawnResponse{LogRecord: record, Time: timestamppb.Now()}
}
