package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"meditriage/internal/catalog"
)

type ServiceTestSuite struct {
	suite.Suite
	cfg      Config
	store    *fakeStore
	reporter *recordingReporter
	sink     channelSink
	svc      Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.cfg = DefaultConfig()
	s.store = &fakeStore{count: 15}
	s.reporter = &recordingReporter{}
	s.sink = make(channelSink, 4)

	svc, err := NewService(s.cfg, s.store, s.reporter, zap.NewNop(), s.sink)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceTestSuite) awaitAssessment() Assessment {
	select {
	case a := <-s.sink:
		return a
	case <-time.After(time.Second):
		s.FailNow("assessment was not recorded")
		return Assessment{}
	}
}

func (s *ServiceTestSuite) TestHeartAttackIsEmergency() {
	result, err := s.svc.PerformTriage(context.Background(), Request{
		SessionID: "s-1",
		Symptoms: []PatientSymptom{
			{Name: "Chest pain", Severity: SeverityCritical},
			{Name: "Difficulty breathing", Severity: SeveritySevere},
		},
	})
	s.Require().NoError(err)

	s.Equal(UrgencyEmergency, result.UrgencyLevel)
	s.Contains(result.Recommendation, s.cfg.Patterns[1].Message)
	s.Contains(result.Recommendation, s.cfg.Disclaimers[UrgencyEmergency])
	s.Equal(s.cfg.GeneralNotice, result.Disclaimer)
	s.Equal(s.cfg.ResponseTimes[UrgencyEmergency], result.EstimatedResponseTime)
	s.Contains(result.Reasoning, "Emergency pattern matched: Heart Attack")

	a := s.awaitAssessment()
	s.True(a.RedFlags.HasRedFlags)
	s.Equal("s-1", a.Request.SessionID)
	s.Equal(*result, a.Result)
}

func (s *ServiceTestSuite) TestMildHeadacheIsSelfCare() {
	result, err := s.svc.PerformTriage(context.Background(), Request{
		Symptoms: []PatientSymptom{{Name: "Mild headache", Severity: SeverityMild}},
	})
	s.Require().NoError(err)

	s.Equal(UrgencySelfCare, result.UrgencyLevel)
	s.Empty(result.TopConditions)
	s.NotNil(result.RedFlagsDetected)
	s.Empty(result.RedFlagsDetected)
	s.Equal(0.06, result.Confidence)

	a := s.awaitAssessment()
	s.Equal(10, a.Score.TotalScore)
	s.False(a.RedFlags.HasRedFlags)
}

// A bare "Headache" fuzzy-matches the "Sudden severe headache" red flag and
// is escalated even at MILD severity.
func (s *ServiceTestSuite) TestPlainHeadacheIsOverMatchedToEmergency() {
	result, err := s.svc.PerformTriage(context.Background(), Request{
		Symptoms: []PatientSymptom{{Name: "Headache", Severity: SeverityMild}},
	})
	s.Require().NoError(err)

	s.Equal(UrgencyEmergency, result.UrgencyLevel)
	s.Equal([]string{"Sudden severe headache"}, result.RedFlagsDetected)
	s.awaitAssessment()
}

func (s *ServiceTestSuite) TestThreeRedFlagsOverrideScore() {
	result, err := s.svc.PerformTriage(context.Background(), Request{
		Symptoms: []PatientSymptom{
			{Name: "Seizures", Severity: SeverityMild},
			{Name: "Vomiting blood", Severity: SeverityMild},
			{Name: "Confusion", Severity: SeverityMild},
		},
	})
	s.Require().NoError(err)

	s.Equal(UrgencyEmergency, result.UrgencyLevel)
	s.Len(result.RedFlagsDetected, 3)

	a := s.awaitAssessment()
	s.Equal(CriticalityCritical, a.RedFlags.CriticalityLevel)
	s.Empty(a.RedFlags.EmergencyPatterns)
}

func (s *ServiceTestSuite) TestTopConditionsAreLimitedAndSorted() {
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i, name := range names {
		s.store.candidates = append(s.store.candidates, catalog.ConditionCandidate{
			Condition:     condition(name, catalog.UrgencyNonUrgent),
			RelevanceRows: rows("Cough", 0.3+float64(i)*0.1, "Fatigue", 0.5),
		})
	}

	result, err := s.svc.PerformTriage(context.Background(), Request{
		Symptoms: []PatientSymptom{
			{Name: "Cough", Severity: SeverityCritical},
			{Name: "Fatigue", Severity: SeverityCritical},
		},
	})
	s.Require().NoError(err)

	s.Require().Len(result.TopConditions, s.cfg.TopConditions)
	for i := 1; i < len(result.TopConditions); i++ {
		s.GreaterOrEqual(result.TopConditions[i-1].MatchScore, result.TopConditions[i].MatchScore)
	}
	for _, m := range result.TopConditions {
		s.GreaterOrEqual(m.MatchScore, s.cfg.MinConfidence)
		s.LessOrEqual(m.MatchScore, 1.0)
	}
	s.GreaterOrEqual(result.Confidence, 0.0)
	s.LessOrEqual(result.Confidence, 1.0)
}

func (s *ServiceTestSuite) TestIdenticalInputIsDeterministic() {
	s.store.candidates = []catalog.ConditionCandidate{
		{Condition: condition("Flu", catalog.UrgencyNonUrgent), RelevanceRows: rows("Fever", 0.8, "Cough", 0.6)},
		{Condition: condition("Pneumonia", catalog.UrgencyUrgent), RelevanceRows: rows("Fever", 0.6, "Cough", 0.9)},
	}
	req := Request{
		SessionID: "same",
		Symptoms: []PatientSymptom{
			{Name: "Fever", Severity: SeverityModerate},
			{Name: "Cough", Severity: SeveritySevere},
		},
	}

	first, err := s.svc.PerformTriage(context.Background(), req)
	s.Require().NoError(err)
	second, err := s.svc.PerformTriage(context.Background(), req)
	s.Require().NoError(err)

	s.Equal(first, second)
}

func (s *ServiceTestSuite) TestStoreOutageDegradesSafely() {
	s.store.err = errors.New("connection reset")

	result, err := s.svc.PerformTriage(context.Background(), Request{
		Symptoms: []PatientSymptom{{Name: "Chest pain", Severity: SeverityModerate}},
	})
	s.Require().NoError(err)

	s.Equal(UrgencyEmergency, result.UrgencyLevel)
	s.Equal([]string{"Chest pain"}, result.RedFlagsDetected)
	s.Empty(result.TopConditions)
	s.ElementsMatch([]string{ComponentRedFlag, ComponentCondition}, s.reporter.components)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.Urgent = 90

	_, err := NewService(cfg, nil, nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds")
}
