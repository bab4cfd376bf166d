package main

import (
	"context"

	"ecohub/internal/challenge"
	"ecohub/internal/climate"
	"ecohub/internal/logging"
	"ecohub/internal/scheduler"
	"ecohub/internal/tips"
)

func (s *Server) jobs() []scheduler.Job {
	return []scheduler.Job{
		{Name: "climate", Every: s.cfg.Jobs.Climate, Run: s.climateJob},
		{Name: "tips", Every: s.cfg.Jobs.Tips, Run: s.rotateTipsJob},
		{Name: "notify", Every: s.cfg.Jobs.Notify, Run: s.notifyTipJob},
		{Name: "reminder", Every: s.cfg.Jobs.Reminder, Run: s.reminderJob},
	}
}

func (s *Server) cachedReading() (climate.Reading, bool) {
	s.readingMu.RLock()
	defer s.readingMu.RUnlock()
	if s.reading == nil {
		return climate.Reading{}, false
	}
	return *s.reading, true
}

// refreshClimate fetches a new reading and caches it.
func (s *Server) refreshClimate(ctx context.Context) climate.Reading {
	reading := s.climate.Fetch(ctx)

	s.readingMu.Lock()
	s.reading = &reading
	s.readingMu.Unlock()

	return reading
}

func (s *Server) climateJob(ctx context.Context) {
	reading := s.refreshClimate(ctx)
	logging.Log.WithField("source", reading.Source).WithField("co2", reading.CO2PPM).Info("Climate data refreshed")
	s.broadcastUpdate("climate", reading)
}

// rotateTipsJob pushes a fresh tip into the feed of every connected visitor.
func (s *Server) rotateTipsJob(ctx context.Context) {
	for _, sid := range s.hub.connectedSessions() {
		s.mu.Lock()
		tip, _, err := s.rotateTip(ctx, sid)
		s.mu.Unlock()

		if err != nil {
			logging.Log.WithError(err).WithField("session", sid).Error("Error rotating tips")
			continue
		}
		s.sendToSession(sid, "tip", tip)
	}
}

func (s *Server) notifyTipJob(ctx context.Context) {
	s.mu.Lock()
	tip := tips.Pick(s.tips, s.rnd)
	s.mu.Unlock()

	s.broadcastUpdate("notification", map[string]interface{}{
		"title":   "Eco Tip",
		"message": tip.Title,
		"tip":     tip,
	})
}

// reminderJob nudges connected visitors who have not completed a day yet
// today.
func (s *Server) reminderJob(ctx context.Context) {
	now := s.now()
	for _, sid := range s.hub.connectedSessions() {
		st, err := s.loadSession(ctx, sid)
		if err != nil {
			logging.Log.WithError(err).WithField("session", sid).Error("Error loading session")
			continue
		}
		if st.LastCompletion == nil || st.Challenge.Status() != challenge.InProgress {
			continue
		}
		if !challenge.ReminderDue(*st.LastCompletion, now) {
			continue
		}

		s.sendToSession(sid, "reminder", map[string]interface{}{
			"title":   "Challenge reminder",
			"message": "Don't forget to complete your eco challenge today!",
			"program": st.Challenge.Program.Title(),
			"day":     st.Challenge.DaysCompleted,
		})
	}
}
