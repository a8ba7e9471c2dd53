package httpclient

import (
	"time"

	"github.com/scoreflow/hyouka/internal/model"
)

// The wire* types mirror the remote service's JSON shapes. They carry json
// tags because this package is the one peripheral layer allowed to know
// about on-the-wire encoding (model stays encoding-agnostic, Design Note
// "Dynamic typing & free-form maps").

type wireFeedbackItem struct {
	ID                 string     `json:"id"`
	ItemID             string     `json:"itemId"`
	AccountID          string     `json:"accountId"`
	ScorecardID        string     `json:"scorecardId"`
	ScoreID            string     `json:"scoreId"`
	CacheKey           string     `json:"cacheKey"`
	InitialAnswerValue *string    `json:"initialAnswerValue"`
	FinalAnswerValue   *string    `json:"finalAnswerValue"`
	InitialCommentValue *string   `json:"initialCommentValue"`
	FinalCommentValue  *string    `json:"finalCommentValue"`
	EditCommentValue   *string    `json:"editCommentValue"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	EditedAt           *time.Time `json:"editedAt"`
	EditorName         *string    `json:"editorName"`
	IsAgreement        bool       `json:"isAgreement"`
	Item               *wireItem  `json:"item,omitempty"`
}

func (w wireFeedbackItem) toModel() model.FeedbackItem {
	fi := model.FeedbackItem{
		ID:                  w.ID,
		ItemID:              w.ItemID,
		AccountID:           w.AccountID,
		ScorecardID:         w.ScorecardID,
		ScoreID:             w.ScoreID,
		CacheKey:            w.CacheKey,
		InitialAnswerValue:  w.InitialAnswerValue,
		FinalAnswerValue:    w.FinalAnswerValue,
		InitialCommentValue: w.InitialCommentValue,
		FinalCommentValue:   w.FinalCommentValue,
		EditCommentValue:    w.EditCommentValue,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
		EditedAt:            w.EditedAt,
		EditorName:          w.EditorName,
		IsAgreement:         w.IsAgreement,
	}
	if w.Item != nil {
		it := w.Item.toModel()
		fi.Item = &it
	}
	return fi
}

type wireItemIdentifier struct {
	Name  string  `json:"name"`
	Value string  `json:"value"`
	URL   *string `json:"url"`
}

type wireLegacyIdentifier struct {
	Name string  `json:"name"`
	ID   string  `json:"id"`
	URL  *string `json:"url"`
}

type wireItem struct {
	ID                string                 `json:"id"`
	AccountID         string                 `json:"accountId"`
	ExternalID        *string                `json:"externalId"`
	EvaluationID      *string                `json:"evaluationId"`
	Text              string                 `json:"text"`
	Metadata          any                    `json:"metadata"`
	AttachedFiles     []string               `json:"attachedFiles"`
	Identifiers       []wireItemIdentifier   `json:"identifiers"`
	LegacyIdentifiers []wireLegacyIdentifier `json:"identifiers_legacy"`
	IsEvaluation      bool                   `json:"isEvaluation"`
	CreatedByType     string                 `json:"createdByType"`
}

func (w wireItem) toModel() model.Item {
	it := model.Item{
		ID:            w.ID,
		AccountID:     w.AccountID,
		ExternalID:    w.ExternalID,
		EvaluationID:  w.EvaluationID,
		Text:          w.Text,
		Metadata:      model.NewJSONValueFromAny(w.Metadata),
		AttachedFiles: w.AttachedFiles,
		IsEvaluation:  w.IsEvaluation,
		CreatedByType: w.CreatedByType,
	}
	for _, id := range w.Identifiers {
		it.Identifiers = append(it.Identifiers, model.ItemIdentifier{Name: id.Name, Value: id.Value, URL: id.URL})
	}
	for _, id := range w.LegacyIdentifiers {
		it.LegacyIdentifiers = append(it.LegacyIdentifiers, model.LegacyIdentifier{Name: id.Name, ID: id.ID, URL: id.URL})
	}
	return it
}

func fromModelItem(it model.Item) wireItem {
	w := wireItem{
		ID:            it.ID,
		AccountID:     it.AccountID,
		ExternalID:    it.ExternalID,
		EvaluationID:  it.EvaluationID,
		Text:          it.Text,
		AttachedFiles: it.AttachedFiles,
		IsEvaluation:  it.IsEvaluation,
		CreatedByType: it.CreatedByType,
	}
	if !it.Metadata.IsEmpty() {
		if obj, ok := it.Metadata.AsObject(); ok {
			w.Metadata = obj
		} else {
			w.Metadata = it.Metadata.Raw
		}
	}
	for _, id := range it.Identifiers {
		w.Identifiers = append(w.Identifiers, wireItemIdentifier{Name: id.Name, Value: id.Value, URL: id.URL})
	}
	for _, id := range it.LegacyIdentifiers {
		w.LegacyIdentifiers = append(w.LegacyIdentifiers, wireLegacyIdentifier{Name: id.Name, ID: id.ID, URL: id.URL})
	}
	return w
}

type wireIdentifier struct {
	ItemID    string  `json:"itemId"`
	AccountID string  `json:"accountId"`
	Name      string  `json:"name"`
	Value     string  `json:"value"`
	URL       *string `json:"url"`
	Position  int     `json:"position"`
}

func (w wireIdentifier) toModel() model.Identifier {
	return model.Identifier{ItemID: w.ItemID, AccountID: w.AccountID, Name: w.Name, Value: w.Value, URL: w.URL, Position: w.Position}
}

func fromModelIdentifier(id model.Identifier) wireIdentifier {
	return wireIdentifier{ItemID: id.ItemID, AccountID: id.AccountID, Name: id.Name, Value: id.Value, URL: id.URL, Position: id.Position}
}

type wireScore struct {
	ID                string  `json:"id"`
	ExternalID        *string `json:"externalId"`
	Key               *string `json:"key"`
	Name              string  `json:"name"`
	ChampionVersionID *string `json:"championVersionId"`
}

type wireSection struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Order  int         `json:"order"`
	Scores []wireScore `json:"scores"`
}

type wireScorecard struct {
	ID         string        `json:"id"`
	AccountID  string        `json:"accountId"`
	ExternalID *string       `json:"externalId"`
	Key        *string       `json:"key"`
	Name       string        `json:"name"`
	Sections   []wireSection `json:"sections"`
}

func (w wireScorecard) toModel() model.Scorecard {
	sc := model.Scorecard{ID: w.ID, AccountID: w.AccountID, ExternalID: w.ExternalID, Key: w.Key, Name: w.Name}
	for _, s := range w.Sections {
		section := model.Section{ID: s.ID, Name: s.Name, Order: s.Order}
		for _, sc2 := range s.Scores {
			section.Scores = append(section.Scores, model.Score{
				ID: sc2.ID, ExternalID: sc2.ExternalID, Key: sc2.Key, Name: sc2.Name, ChampionVersionID: sc2.ChampionVersionID,
			})
		}
		sc.Sections = append(sc.Sections, section)
	}
	return sc
}

// wireScoreResult leaves Cost and Metadata as raw JSON blobs: the remote
// service may emit the cost substructure as a direct "cost" field or nested
// under metadata["cost"] (spec §3), and disambiguating/normalizing that is
// internal/cost's job, not this transport layer's.
type wireScoreResult struct {
	ID          string    `json:"id"`
	ItemID      *string   `json:"itemId"`
	AccountID   string    `json:"accountId"`
	ScorecardID string    `json:"scorecardId"`
	ScoreID     string    `json:"scoreId"`
	ScoreName   string    `json:"scoreName"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Cost        any       `json:"cost"`
	Metadata    any       `json:"metadata"`
}

func (w wireScoreResult) toModel() model.ScoreResult {
	return model.ScoreResult{
		ID:          w.ID,
		ItemID:      w.ItemID,
		AccountID:   w.AccountID,
		ScorecardID: w.ScorecardID,
		ScoreID:     w.ScoreID,
		ScoreName:   w.ScoreName,
		UpdatedAt:   w.UpdatedAt,
		Cost:        model.NewJSONValueFromAny(w.Cost),
		Metadata:    model.NewJSONValueFromAny(w.Metadata),
	}
}
