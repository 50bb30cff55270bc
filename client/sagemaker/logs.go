package sagemaker

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"

	"github.com/platformlab/sagerun/log"
)

const trainingLogGroup = "/aws/sagemaker/TrainingJobs"

// logTail follows the remote log stream of one job and reprints new
// lines locally.
type logTail struct {
	cwl    *cloudwatchlogs.CloudWatchLogs
	group  string
	prefix string

	stream string
	token  *string
}

func newLogTail(cwl *cloudwatchlogs.CloudWatchLogs, group, prefix string) *logTail {
	return &logTail{
		cwl:    cwl,
		group:  group,
		prefix: prefix,
	}
}

// Tail prints remote log lines emitted since the previous call. Tail
// failures are not fatal: the stream appears only once the remote
// container started.
func (t *logTail) Tail(ctx context.Context) {
	if t.stream == "" {
		out, err := t.cwl.DescribeLogStreamsWithContext(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
			LogGroupName:        aws.String(t.group),
			LogStreamNamePrefix: aws.String(t.prefix),
		})
		if err != nil || len(out.LogStreams) == 0 {
			return
		}
		t.stream = aws.StringValue(out.LogStreams[0].LogStreamName)
	}

	out, err := t.cwl.GetLogEventsWithContext(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(t.group),
		LogStreamName: aws.String(t.stream),
		NextToken:     t.token,
		StartFromHead: aws.Bool(true),
	})
	if err != nil {
		log.Errorf("cannot tail log stream %q: %s", t.stream, err)
		return
	}
	for _, e := range out.Events {
		log.Infof("[%s] %s", t.stream, aws.StringValue(e.Message))
	}
	if out.NextForwardToken != nil {
		t.token = out.NextForwardToken
	}
}
