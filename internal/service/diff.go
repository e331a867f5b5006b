package service

import (
	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
)

// ComputeDiff 当前计数器减去参照快照；没有参照时返回全零且 ComparisonDate 为空
func ComputeDiff(current model.Counters, previous *schema.ActivitySnapshot) model.StatsDiff {
	if previous == nil {
		return model.StatsDiff{}
	}
	p := previous.Counters
	return model.StatsDiff{
		Commits:        current.Commits - p.Commits,
		PullRequests:   current.PullRequests - p.PullRequests,
		Reviews:        current.Reviews - p.Reviews,
		Issues:         current.Issues - p.Issues,
		Stars:          current.Stars - p.Stars,
		Contributions:  current.Contributions - p.Contributions,
		ComparisonDate: previous.Date,
	}
}
