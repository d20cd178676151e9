package main

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/service"
)

// dayLoad 单日考官容量汇总
type dayLoad struct {
	Date      time.Time
	Examiners int
	Allocated int
	Free      int
}

// summarizeLoad 按日期汇总可用考官数、已分配与剩余名额；只统计有考官可用的日期
func summarizeLoad(avail []model.ExaminerAvailability, allocs []model.ExamAllocation, capacity int) []dayLoad {
	type slot struct {
		examinerID string
		date       time.Time
	}
	perExaminer := make(map[slot]int)
	for _, a := range allocs {
		perExaminer[slot{a.ExaminerID, service.NormalizeDate(a.Date)}]++
	}

	byDate := make(map[time.Time]*dayLoad)
	for _, av := range avail {
		d := service.NormalizeDate(av.Date)
		l, ok := byDate[d]
		if !ok {
			l = &dayLoad{Date: d}
			byDate[d] = l
		}
		// 考官撤销可用后的遗留分配不计入
		n := perExaminer[slot{av.ExaminerID, d}]
		l.Examiners++
		l.Allocated += n
		if n < capacity {
			l.Free += capacity - n
		}
	}

	out := make([]dayLoad, 0, len(byDate))
	for _, l := range byDate {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func renderLoad(w io.Writer, loads []dayLoad) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"日期", "星期", "可用考官", "已分配", "剩余名额"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, l := range loads {
		table.Append([]string{
			service.FormatDate(l.Date),
			l.Date.Weekday().String(),
			strconv.Itoa(l.Examiners),
			strconv.Itoa(l.Allocated),
			strconv.Itoa(l.Free),
		})
	}
	table.Render()
}

func renderExams(w io.Writer, list []dto.AllocationResponse) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"考官", "候选人", "课程", "状态"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, a := range list {
		table.Append([]string{
			orID(a.ExaminerEmail, a.ExaminerID),
			orID(a.CandidateEmail, a.CandidateID),
			orID(a.SessionTitle, a.SessionID),
			a.Status,
		})
	}
	table.Render()
}

func orID(label, id string) string {
	if label != "" {
		return label
	}
	return id
}
