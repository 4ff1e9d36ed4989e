package repositories

import (
	"context"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strconv"
	"time"
)

const (
	emptyCell       = "—"
	timestampLayout = "2006-01-02 15:04:05"
	sessionColumn   = 8
)

type spreadsheet interface {
	AppendRow(ctx context.Context, sheet string, row []any) error
	ReadRows(ctx context.Context, sheet string) ([][]string, error)
}

// SheetLeads stores leads as rows of a spreadsheet:
// nickname | phone | role | subject | class | created at | user id | action | session id
type SheetLeads struct {
	sheets    spreadsheet
	sheetName string
	location  *time.Location
}

func NewSheetLeadsRepository(sheets spreadsheet, sheetName string) *SheetLeads {
	return &SheetLeads{sheets: sheets, sheetName: sheetName, location: time.Local}
}

// Add appends the lead unless a row of its session is already there. Appends are not retried
// by the client, so a lead whose append failed after being written is found here on the next try.
func (repo *SheetLeads) Add(ctx context.Context, lead models.Lead) error {

	stored, err := repo.hasSession(ctx, lead.SessionID)
	if err != nil {
		return err
	}
	if stored {
		return ErrLeadAlreadyStored
	}

	row := []any{
		orEmptyCell(lead.Nickname),
		orEmptyCell(lead.Phone),
		string(lead.Role),
		string(lead.Subject),
		orEmptyCell(lead.Class),
		lead.CreatedAt.In(repo.location).Format(timestampLayout),
		strconv.FormatInt(lead.UserID, 10),
		orEmptyCell(string(lead.Action)),
		lead.SessionID,
	}
	return errors.Wrap(repo.sheets.AppendRow(ctx, repo.sheetName, row), "failed to append lead row")
}

func (repo *SheetLeads) hasSession(ctx context.Context, sessionID string) (bool, error) {
	rows, err := repo.sheets.ReadRows(ctx, repo.sheetName)
	if err != nil {
		return false, errors.Wrap(err, "failed to read lead rows")
	}

	for _, row := range rows {
		if len(row) > sessionColumn && row[sessionColumn] == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *SheetLeads) GetAll(ctx context.Context) ([]models.Lead, error) {
	rows, err := repo.sheets.ReadRows(ctx, repo.sheetName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read lead rows")
	}

	leads := make([]models.Lead, 0, len(rows))
	for i, row := range rows {
		lead, err := repo.parseRow(row)
		if err != nil {
			log.Debugf("skipping sheet row %d: %v", i+1, err)
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func (repo *SheetLeads) parseRow(row []string) (models.Lead, error) {
	if len(row) < 7 {
		return models.Lead{}, errors.Errorf("expected at least 7 cells, got %d", len(row))
	}

	createdAt, err := time.ParseInLocation(timestampLayout, row[5], repo.location)
	if err != nil {
		return models.Lead{}, errors.Wrap(err, "bad timestamp")
	}

	userID, err := strconv.ParseInt(row[6], 10, 64)
	if err != nil {
		return models.Lead{}, errors.Wrap(err, "bad user id")
	}

	lead := models.Lead{
		Nickname:  fromEmptyCell(row[0]),
		Phone:     fromEmptyCell(row[1]),
		Role:      models.Role(row[2]),
		Subject:   models.Subject(row[3]),
		Class:     fromEmptyCell(row[4]),
		CreatedAt: createdAt,
		UserID:    userID,
	}
	if len(row) > 7 {
		lead.Action = models.Action(fromEmptyCell(row[7]))
	}
	if len(row) > sessionColumn {
		lead.SessionID = row[sessionColumn]
	}
	return lead, nil
}

func orEmptyCell(value string) string {
	if value == "" {
		return emptyCell
	}
	return value
}

func fromEmptyCell(value string) string {
	if value == emptyCell {
		return ""
	}
	return value
}
