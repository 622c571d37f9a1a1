package main

import (
	"github.com/jobflow/jobflow-backend/internal/accrual"
	"github.com/jobflow/jobflow-backend/internal/chat"
	"github.com/jobflow/jobflow-backend/internal/contract"
	"github.com/jobflow/jobflow-backend/internal/leave"
	"github.com/jobflow/jobflow-backend/internal/push"
	"github.com/jobflow/jobflow-backend/internal/schedule"
	"github.com/jobflow/jobflow-backend/internal/timeentry"
	"github.com/jobflow/jobflow-backend/internal/user"
	"github.com/jobflow/jobflow-backend/internal/workpattern"
)

type services struct {
	users     *user.Service
	patterns  *workpattern.Service
	entries   *timeentry.Service
	accrual   *accrual.Service
	leave     *leave.Service
	schedule  *schedule.Service
	contracts *contract.Service
	chat      *chat.Service
	push      *push.Service
}

// buildServices wires every domain service onto the Postgres repositories.
func buildServices(e *env) *services {
	db := e.db.SQL
	s := &services{}

	s.users = user.NewService(user.NewPostgresRepository(db))
	s.patterns = workpattern.NewService(workpattern.NewPostgresRepository(db), s.users)
	s.entries = timeentry.NewService(timeentry.NewPostgresRepository(db))
	s.accrual = accrual.NewService(accrual.NewPostgresRepository(db), s.users, s.patterns, s.entries, e.cfg.Accrual.OvertimeRate, e.log)
	s.leave = leave.NewService(leave.NewPostgresRepository(db), s.patterns, s.accrual)
	s.schedule = schedule.NewService(schedule.NewPostgresRepository(db), s.users, s.patterns, s.leave, e.cfg.Schedule.DefaultStart, e.log)
	s.contracts = contract.NewService(contract.NewPostgresRepository(db), s.users, e.log)
	s.chat = chat.NewService(chat.NewPostgresRepository(db))

	var sender push.Sender
	if e.cfg.Push.VAPIDPublicKey != "" && e.cfg.Push.VAPIDPrivateKey != "" {
		sender = push.NewWebPushSender(e.cfg.Push)
	} else {
		e.log.Warnw("web push disabled, VAPID keys are not configured")
	}
	s.push = push.NewService(push.NewPostgresRepository(db), sender, e.cfg.Push.VAPIDPublicKey, e.log)
	return s
}
