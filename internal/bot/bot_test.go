package bot

import (
	"context"
	"errors"
	"fmt"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kyokomi/emoji/v2"
	"github.com/maxaizer/tutor-bot/internal/domain/events"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/maxaizer/tutor-bot/internal/repositories"
	"github.com/maxaizer/tutor-bot/internal/services"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockApi struct {
	mu           sync.Mutex
	SentMessages []botApi.Chattable
	Requests     []botApi.Chattable
	nextID       int
}

func (m *mockApi) Send(chattable botApi.Chattable) (botApi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, chattable)
	m.nextID++
	return botApi.Message{MessageID: m.nextID}, nil
}

func (m *mockApi) Request(chattable botApi.Chattable) (*botApi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, chattable)
	return &botApi.APIResponse{Ok: true}, nil
}

func (m *mockApi) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = nil
	m.Requests = nil
}

func (m *mockApi) messages() []botApi.MessageConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []botApi.MessageConfig
	for _, chattable := range m.SentMessages {
		if msg, ok := chattable.(botApi.MessageConfig); ok {
			result = append(result, msg)
		}
	}
	return result
}

func (m *mockApi) texts() []string {
	var result []string
	for _, msg := range m.messages() {
		result = append(result, msg.Text)
	}
	return result
}

func (m *mockApi) lastText() string {
	texts := m.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (m *mockApi) documents() []botApi.DocumentConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []botApi.DocumentConfig
	for _, chattable := range m.SentMessages {
		if doc, ok := chattable.(botApi.DocumentConfig); ok {
			result = append(result, doc)
		}
	}
	return result
}

func (m *mockApi) edits() []botApi.EditMessageTextConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []botApi.EditMessageTextConfig
	for _, chattable := range m.SentMessages {
		if edit, ok := chattable.(botApi.EditMessageTextConfig); ok {
			result = append(result, edit)
		}
	}
	return result
}

type mockLeads struct {
	mu    sync.Mutex
	leads []models.Lead
	err   error
}

func (m *mockLeads) Add(_ context.Context, lead models.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.leads = append(m.leads, lead)
	return nil
}

func (m *mockLeads) GetAll(_ context.Context) ([]models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Lead(nil), m.leads...), nil
}

func (m *mockLeads) stored() []models.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Lead(nil), m.leads...)
}

func (m *mockLeads) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type mockSubscriptions struct {
	subscribed map[string]bool
	err        error
}

func (m *mockSubscriptions) IsSubscribed(_ context.Context, channel string, _ int64) (bool, error) {
	if channel == "" {
		return true, nil
	}
	if m.err != nil {
		return false, m.err
	}
	return m.subscribed[channel], nil
}

type testEnv struct {
	controller    *Controller
	api           *mockApi
	leads         *mockLeads
	subscriptions *mockSubscriptions
	collected     []events.LeadCollected
	collectedMu   sync.Mutex
}

func (e *testEnv) collectedLeads() []events.LeadCollected {
	e.collectedMu.Lock()
	defer e.collectedMu.Unlock()
	return append([]events.LeadCollected(nil), e.collected...)
}

var mathFiles = map[string][]byte{
	"/math/derivative.pdf":   []byte("derivative"),
	"/math/trigonometry.pdf": []byte("trigonometry"),
}

func testCatalog(t *testing.T) *models.Catalog {
	catalog, err := models.NewCatalog([]models.SubjectMaterials{
		{
			Subject: models.Math,
			Channel: "@dogmathic",
			Materials: []models.Material{
				{Title: "Производная", File: "math/derivative.pdf"},
				{Title: "Тригонометрия", File: "math/trigonometry.pdf"},
			},
		},
		{Subject: models.Physics, Channel: "@dogphysic"},
		{
			Subject:   models.Chemistry,
			Materials: []models.Material{{Title: "Строение атома", File: "chem/atoms.pdf"}},
		},
		{
			Subject:   models.Biology,
			Materials: []models.Material{{Title: "Клетка", File: "bio/cell.pdf"}},
		},
	})
	require.NoError(t, err)
	return catalog
}

func newTestEnv(t *testing.T) *testEnv {

	fs := afero.NewMemMapFs()
	for name, data := range mathFiles {
		require.NoError(t, afero.WriteFile(fs, name, data, 0644))
	}
	require.NoError(t, afero.WriteFile(fs, "/chem/atoms.pdf", []byte("atoms"), 0644))

	env := &testEnv{
		api:           &mockApi{},
		leads:         &mockLeads{},
		subscriptions: &mockSubscriptions{subscribed: map[string]bool{}},
	}

	bus := EventBus.New()
	require.NoError(t, bus.Subscribe(events.LeadCollectedTopic, func(event events.LeadCollected) {
		env.collectedMu.Lock()
		defer env.collectedMu.Unlock()
		env.collected = append(env.collected, event)
	}))

	controller, err := NewController(env.api, Dependencies{
		Leads:         env.leads,
		Subscriptions: env.subscriptions,
		Materials:     services.NewMaterialStorage(fs),
		Catalog:       testCatalog(t),
		Bus:           bus,
	}, Options{
		OperatorContact: "@operator",
		AdminIDs:        []int64{100},
		AdminUsernames:  []string{"@Boss"},
		ProgressSteps:   4,
	})
	require.NoError(t, err)

	sessionCounter := 0
	controller.newSessionID = func() string {
		sessionCounter++
		return fmt.Sprintf("session-%d", sessionCounter)
	}
	controller.now = func() time.Time { return time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC) }

	env.controller = controller
	return env
}

func testUser(id int64, username string) Sender {
	return Sender{UserID: id, ChatID: id, Username: username, FirstName: "Test"}
}

func command(sender Sender, name string) CommandEvent {
	return CommandEvent{Sender: sender, Command: name}
}

func press(sender Sender, data string) CallbackEvent {
	return CallbackEvent{Sender: sender, QueryID: "query", MessageID: 1, Data: data}
}

func contact(sender Sender, phone string) ContactEvent {
	return ContactEvent{Sender: sender, Phone: phone, ContactUserID: sender.UserID}
}

func (e *testEnv) handle(inbound ...Event) {
	for _, event := range inbound {
		e.controller.Handle(context.Background(), event)
	}
}

func inlineData(t *testing.T, msg botApi.MessageConfig) []string {
	markup, ok := msg.ReplyMarkup.(botApi.InlineKeyboardMarkup)
	require.True(t, ok, "message %q has no inline keyboard", msg.Text)

	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			require.NotNil(t, button.CallbackData)
			data = append(data, *button.CallbackData)
		}
	}
	return data
}

func Test_ParentRegistration_ShouldStoreOneLeadAndNotifyOnce(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	parent := testUser(1, "parent_nick")

	env.handle(
		command(parent, "start"),
		press(parent, "role|parent"),
		press(parent, "subject|Физика"),
		press(parent, "class|10"),
		contact(parent, "+70000000000"),
	)

	leads := env.leads.stored()
	require.Len(t, leads, 1)
	lead := leads[0]
	assert.Equal("session-1", lead.SessionID)
	assert.Equal(int64(1), lead.UserID)
	assert.Equal("parent_nick", lead.Nickname)
	assert.Equal(models.RoleParent, lead.Role)
	assert.Equal(models.Physics, lead.Subject)
	assert.Equal("10", lead.Class)
	assert.Equal("+70000000000", lead.Phone)

	collected := env.collectedLeads()
	require.Len(t, collected, 1)
	assert.Equal(lead, collected[0].Lead)
	assert.Equal(textRegistered, env.api.lastText())

	env.handle(contact(parent, "+70000000000"), press(parent, "class|10"), press(parent, "role|parent"))

	assert.Len(env.leads.stored(), 1)
	assert.Len(env.collectedLeads(), 1)
	assert.Equal(textRegistrationOver, env.api.lastText())
}

func Test_StudentMaterials_ShouldFinalizeWithoutPhoneAndListMaterials(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	student := testUser(2, "student_nick")

	env.handle(
		command(student, "start"),
		press(student, "role|student"),
		press(student, "action|materials"),
		press(student, "subject|Химия"),
		press(student, "class|ОГЭ"),
	)

	leads := env.leads.stored()
	require.Len(t, leads, 1)
	assert.Equal(models.RoleStudent, leads[0].Role)
	assert.Equal(models.ActionMaterials, leads[0].Action)
	assert.Equal(models.Chemistry, leads[0].Subject)
	assert.Equal("ОГЭ", leads[0].Class)
	assert.Empty(leads[0].Phone)

	messages := env.api.messages()
	listing := messages[len(messages)-1]
	assert.Equal(emoji.Sprintf(textMaterialsFormat, models.Chemistry), listing.Text)
	assert.Equal([]string{"material|Химия|0"}, inlineData(t, listing))
}

func Test_StudentRegistration_ShouldAskPhone(t *testing.T) {
	env := newTestEnv(t)
	student := testUser(3, "student_nick")

	env.handle(
		command(student, "start"),
		press(student, "role|student"),
		press(student, "action|register"),
		press(student, "subject|Математика"),
		press(student, "class|11"),
	)

	assert.Empty(t, env.leads.stored())
	assert.Equal(t, textAskPhone, env.api.lastText())

	env.handle(contact(student, "79990001122"))

	leads := env.leads.stored()
	require.Len(t, leads, 1)
	assert.Equal(t, "+79990001122", leads[0].Phone)
	assert.Equal(t, models.ActionRegister, leads[0].Action)
}

func Test_Applicant_ShouldFinalizeRightAfterRole(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	applicant := testUser(4, "")

	env.handle(command(applicant, "start"), press(applicant, "role|applicant"))

	leads := env.leads.stored()
	require.Len(t, leads, 1)
	assert.Equal(models.RoleApplicant, leads[0].Role)
	assert.Equal(models.Biochemistry, leads[0].Subject)
	assert.Empty(leads[0].Class)
	assert.Empty(leads[0].Phone)
	assert.Equal("id4", leads[0].Nickname)
	assert.NoError(leads[0].Validate())
	assert.Len(env.collectedLeads(), 1)
}

func Test_Teacher_ShouldBeRedirectedWithoutCollectingData(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	teacher := testUser(5, "teacher_nick")

	env.handle(command(teacher, "start"), press(teacher, "role|teacher"))
	assert.Contains(env.api.lastText(), "@operator")

	env.handle(press(teacher, "subject|Физика"), command(teacher, "materials"))

	assert.Empty(env.leads.stored())
	assert.Empty(env.collectedLeads())
	assert.Contains(env.api.lastText(), "@operator")
}

func Test_Start_ShouldDiscardUnfinalizedSession(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(6, "some_user")

	env.handle(
		command(user, "start"),
		press(user, "role|parent"),
		press(user, "subject|Физика"),
		command(user, "start"),
		press(user, "class|10"),
	)
	assert.Equal(textInvalidSelection, env.api.lastText())

	env.handle(
		press(user, "role|student"),
		press(user, "action|materials"),
		press(user, "subject|Химия"),
		press(user, "class|9"),
	)

	leads := env.leads.stored()
	require.Len(t, leads, 1)
	assert.Equal("session-2", leads[0].SessionID)
	assert.Equal(models.RoleStudent, leads[0].Role)
	assert.Equal(models.Chemistry, leads[0].Subject)
	assert.Equal("9", leads[0].Class)
}

func Test_InvalidSelections_ShouldNotChangeSession(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(7, "some_user")

	env.handle(command(user, "start"))

	for _, data := range []string{"subject|Физика", "role|admin", "role", "role|parent|extra", "unknown|x", "class|10"} {
		env.api.reset()
		env.handle(press(user, data))
		assert.Equal(t, []string{textInvalidSelection}, env.api.texts(), data)
	}

	env.handle(press(user, "role|parent"))
	for _, data := range []string{"subject|Биохимия", "subject|Астрономия", "class|10", "action|register"} {
		env.api.reset()
		env.handle(press(user, data))
		assert.Equal(t, []string{textInvalidSelection}, env.api.texts(), data)
	}

	env.handle(press(user, "subject|Биология"), press(user, "class|12"))
	assert.Equal(t, textInvalidSelection, env.api.lastText())

	env.handle(press(user, "class|8"), contact(user, "+71112223344"))
	leads := env.leads.stored()
	require.Len(t, leads, 1)
	assert.Equal(t, models.Biology, leads[0].Subject)
	assert.Equal(t, "8", leads[0].Class)
}

func Test_Callback_WithoutSession_ShouldAskToStart(t *testing.T) {
	env := newTestEnv(t)

	env.handle(press(testUser(8, "nick_name"), "role|parent"))

	assert.Equal(t, []string{textNoSession}, env.api.texts())
	assert.Empty(t, env.leads.stored())
}

func Test_Nickname_ShouldBeAskedWhenUsernameIsMissing(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(9, "")

	env.handle(
		command(user, "start"),
		press(user, "role|parent"),
		press(user, "subject|Русский"),
		press(user, "class|5"),
	)
	assert.Equal(textAskNickname, env.api.lastText())

	for _, input := range []string{"   ", "ab", "1abcdef", "@bad-nick", "name with spaces"} {
		env.api.reset()
		env.handle(TextEvent{Sender: user, Text: input})
		texts := env.api.texts()
		require.Len(t, texts, 1, input)
		assert.Contains([]string{textNicknameEmpty, textNicknameInvalid}, texts[0], input)
	}

	env.handle(TextEvent{Sender: user, Text: "@valid_nick"})
	assert.Equal(textAskPhone, env.api.lastText())

	env.handle(contact(user, "+70000000001"))
	leads := env.leads.stored()
	require.Len(t, leads, 1)
	assert.Equal("valid_nick", leads[0].Nickname)
}

func Test_Text_OutsideNicknameStep_ShouldBeIgnored(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(10, "nick_name")

	env.handle(TextEvent{Sender: user, Text: "hello"})
	env.handle(command(user, "start"))
	env.api.reset()
	env.handle(TextEvent{Sender: user, Text: "hello"})

	assert.Empty(t, env.api.SentMessages)
	assert.Len(t, env.api.Requests, 1)
}

func Test_Contact_OfAnotherUser_ShouldBeRejected(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(11, "nick_name")

	env.handle(
		command(user, "start"),
		press(user, "role|parent"),
		press(user, "subject|Физика"),
		press(user, "class|7"),
		ContactEvent{Sender: user, Phone: "+70000000002", ContactUserID: 999},
		ContactEvent{Sender: user, Phone: "+70000000003"},
	)

	assert.Empty(t, env.leads.stored())
	assert.Equal(t, textForeignContact, env.api.lastText())
}

func Test_PersistenceFailure_ShouldKeepStepForRetry(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(12, "nick_name")
	env.leads.setErr(errors.New("sheets are down"))

	env.handle(
		command(user, "start"),
		press(user, "role|parent"),
		press(user, "subject|Физика"),
		press(user, "class|10"),
		contact(user, "+70000000000"),
	)

	assert.Equal(textSaveFailed, env.api.lastText())
	assert.Empty(env.collectedLeads())

	env.leads.setErr(nil)
	env.handle(contact(user, "+70000000000"))

	assert.Len(env.leads.stored(), 1)
	assert.Len(env.collectedLeads(), 1)
	assert.Equal(textRegistered, env.api.lastText())
}

func Test_Applicant_PersistenceFailure_ShouldRetryOnSameRole(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(13, "nick_name")
	env.leads.setErr(errors.New("db is locked"))

	env.handle(command(user, "start"), press(user, "role|applicant"))
	assert.Equal(t, textSaveFailed, env.api.lastText())

	env.leads.setErr(nil)
	env.handle(press(user, "role|applicant"))

	assert.Len(t, env.leads.stored(), 1)
	assert.Len(t, env.collectedLeads(), 1)
}

func Test_Applicant_PersistenceFailure_ThenOtherRole_ShouldAskSubject(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(14, "nick_name")
	env.leads.setErr(errors.New("db is locked"))

	env.handle(command(user, "start"), press(user, "role|applicant"))
	assert.Equal(textSaveFailed, env.api.lastText())

	env.leads.setErr(nil)
	env.handle(press(user, "role|parent"))
	assert.Equal(textChooseSubject, env.api.lastText())
	assert.Empty(env.leads.stored())

	env.handle(press(user, "subject|Физика"), press(user, "class|10"), contact(user, "70000000000"))

	stored := env.leads.stored()
	require.Len(t, stored, 1)
	assert.Equal(models.RoleParent, stored[0].Role)
	assert.Equal(models.Physics, stored[0].Subject)
	assert.Equal("10", stored[0].Class)
}

func Test_PersistenceFailure_WhenLeadWasWrittenAnyway_ShouldFinalizeOnRetry(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(15, "nick_name")

	env.leads.setErr(errors.New("sheets: 503 backend error"))
	env.handle(command(user, "start"), press(user, "role|applicant"))
	assert.Equal(textSaveFailed, env.api.lastText())
	assert.Empty(env.collectedLeads())

	env.leads.setErr(repositories.ErrLeadAlreadyStored)
	env.handle(press(user, "role|applicant"))

	assert.Equal(textApplicantDone, env.api.lastText())
	assert.Len(env.collectedLeads(), 1)
}

func registerForMaterials(env *testEnv, user Sender, subject models.Subject) {
	env.handle(
		command(user, "start"),
		press(user, "role|student"),
		press(user, "action|materials"),
		press(user, "subject|"+string(subject)),
		press(user, "class|10"),
	)
}

func Test_Materials_UnsubscribedSubject_ShouldBeRejected(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(14, "nick_name")

	registerForMaterials(env, user, models.Math)
	rejection := emoji.Sprintf(textSubscribeFormat, models.Math, "@dogmathic")
	assert.Equal(rejection, env.api.lastText())

	env.api.reset()
	env.handle(command(user, "materials"), press(user, "material|Математика|0"))

	assert.Equal([]string{rejection, rejection}, env.api.texts())
	assert.Empty(env.api.documents())
	for _, msg := range env.api.messages() {
		assert.Nil(msg.ReplyMarkup)
	}
}

func Test_Materials_LookupError_ShouldFailClosed(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(15, "nick_name")
	env.subscriptions.subscribed["@dogmathic"] = true
	env.subscriptions.err = errors.New("chat not found")

	registerForMaterials(env, user, models.Math)
	env.handle(press(user, "material|Математика|1"))

	assert.Equal(t, emoji.Sprintf(textSubscribeFormat, models.Math, "@dogmathic"), env.api.lastText())
	assert.Empty(t, env.api.documents())
}

func Test_MaterialDelivery_ShouldSendCatalogEntryByIndex(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(16, "nick_name")
	env.subscriptions.subscribed["@dogmathic"] = true

	registerForMaterials(env, user, models.Math)
	messages := env.api.messages()
	assert.Equal([]string{"material|Математика|0", "material|Математика|1"}, inlineData(t, messages[len(messages)-1]))

	files := []string{"math/derivative.pdf", "math/trigonometry.pdf"}
	for i, file := range files {
		env.api.reset()
		env.handle(press(user, fmt.Sprintf("material|Математика|%d", i)))

		documents := env.api.documents()
		require.Len(t, documents, 1)
		data, ok := documents[0].File.(botApi.FileBytes)
		require.True(t, ok)
		assert.Equal(mathFiles["/"+file], data.Bytes)
		assert.Equal(file[strings.LastIndex(file, "/")+1:], data.Name)

		var percents []string
		for _, edit := range env.api.edits() {
			percents = append(percents, edit.Text)
		}
		assert.Equal([]string{
			emoji.Sprintf(textProgressFormat, 25),
			emoji.Sprintf(textProgressFormat, 50),
			emoji.Sprintf(textProgressFormat, 75),
			emoji.Sprintf(textProgressFormat, 100),
		}, percents)
		assert.Equal(env.api.SentMessages[len(env.api.SentMessages)-1], documents[0])
	}
}

func Test_MaterialDelivery_UnknownMaterial_ShouldReplyNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(17, "nick_name")
	env.subscriptions.subscribed["@dogmathic"] = true
	registerForMaterials(env, user, models.Math)

	for _, data := range []string{
		"material|Математика|2", "material|Математика|-1", "material|Математика|x",
		"material|Астрономия|0", "material|Математика", "material|Физика|0",
	} {
		env.api.reset()
		env.handle(press(user, data))
		assert.Equal(t, []string{textMaterialNotFound}, env.api.texts(), data)
		assert.Empty(t, env.api.documents(), data)
	}
}

func Test_MaterialDelivery_MissingFile_ShouldReplyFileNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(18, "nick_name")
	registerForMaterials(env, user, models.Biology)

	env.api.reset()
	env.handle(press(user, "material|Биология|0"))

	assert.Equal(t, []string{textFileNotFound}, env.api.texts())
	assert.NotEqual(t, textMaterialNotFound, textFileNotFound)
	assert.Empty(t, env.api.documents())
	assert.Empty(t, env.api.edits())
}

func Test_Materials_BeforeFinalization_ShouldRedirect(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(19, "nick_name")

	env.handle(command(user, "materials"))
	assert.Equal(t, []string{textNoSession}, env.api.texts())

	env.handle(command(user, "start"), press(user, "role|parent"))
	env.api.reset()
	env.handle(command(user, "materials"), press(user, "material|Химия|0"))

	assert.Equal(t, []string{textFinishFirst, textChooseSubject, textFinishFirst, textChooseSubject}, env.api.texts())
	assert.Empty(t, env.api.documents())
}

func Test_Cancel_ShouldDropOnlyUnfinalizedSession(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	user := testUser(20, "nick_name")

	env.handle(command(user, "start"), press(user, "role|parent"), command(user, "cancel"))
	assert.Equal(textCanceled, env.api.lastText())

	env.handle(press(user, "subject|Физика"))
	assert.Equal(textNoSession, env.api.lastText())

	registerForMaterials(env, user, models.Chemistry)
	env.handle(command(user, "cancel"))
	assert.Equal(textNothingToCancel, env.api.lastText())

	env.api.reset()
	env.handle(command(user, "materials"), press(user, "material|Химия|0"))
	assert.Len(env.api.documents(), 1)
}

func Test_Admin_ShouldListLeadsOnlyForAdmins(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	env.handle(command(testUser(21, "nobody"), "admin"))
	assert.Equal(textAccessDenied, env.api.lastText())

	env.handle(command(testUser(100, ""), "admin"))
	assert.Equal(textNoLeads, env.api.lastText())

	parent := testUser(22, "parent_nick")
	env.handle(
		command(parent, "start"),
		press(parent, "role|parent"),
		press(parent, "subject|Физика"),
		press(parent, "class|10"),
		contact(parent, "+70000000000"),
	)

	env.api.reset()
	env.handle(command(testUser(23, "boss"), "admin"))
	texts := env.api.texts()
	require.Len(t, texts, 1)
	assert.Contains(texts[0], emoji.Sprintf(textLeadsHeader, 1))
	assert.Contains(texts[0], "@parent_nick")
	assert.Contains(texts[0], "+70000000000")

	env.leads.setErr(errors.New("db is gone"))
	env.handle(command(testUser(100, ""), "admin"))
	assert.Equal(textLeadsFailed, env.api.lastText())
}

func Test_SplitMessage_ShouldKeepMessagesUnderLimit(t *testing.T) {
	assert := assert.New(t)

	lines := []string{"first line", "second line", "third line", strings.Repeat("ж", 40)}
	messages := splitMessage("header", lines, 25)

	assert.Equal([]string{"header\nfirst line", "second line\nthird line", strings.Repeat("ж", 25)}, messages)
	for _, msg := range messages {
		assert.LessOrEqual(len([]rune(msg)), 25)
	}
	assert.Equal([]string{"header"}, splitMessage("header", nil, 25))
}

func Test_Handle_ConcurrentContacts_ShouldFinalizeOnce(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(24, "nick_name")

	env.handle(
		command(user, "start"),
		press(user, "role|parent"),
		press(user, "subject|Химия"),
		press(user, "class|9"),
	)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.controller.Handle(context.Background(), contact(user, "+70000000000"))
		}()
	}
	wg.Wait()

	assert.Len(t, env.leads.stored(), 1)
	assert.Len(t, env.collectedLeads(), 1)
}

func Test_Handle_ShouldSendTypingBeforeEveryEvent(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(25, "nick_name")

	env.handle(command(user, "start"), TextEvent{Sender: user, Text: "hi"}, command(user, "unknown"))

	var actions int
	for _, request := range env.api.Requests {
		if action, ok := request.(botApi.ChatActionConfig); ok {
			assert.Equal(t, botApi.ChatTyping, action.Action)
			actions++
		}
	}
	assert.Equal(t, 3, actions)
	assert.Equal(t, textUnknownCommand, env.api.lastText())
}

func Test_TypingHook_ShouldWaitConfiguredDelay(t *testing.T) {
	api := &mockApi{}
	hook := typingHook(api, 30*time.Millisecond)

	start := time.Now()
	hook(context.Background(), TextEvent{Sender: testUser(26, "")})

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Len(t, api.Requests, 1)
}

func Test_EventFromUpdate(t *testing.T) {
	assert := assert.New(t)
	private := &botApi.Chat{ID: 1, Type: "private"}
	from := &botApi.User{ID: 1, UserName: "nick_name"}

	event, ok := eventFromUpdate(botApi.Update{Message: &botApi.Message{
		From: from, Chat: private, Text: "/start",
		Entities: []botApi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}})
	assert.True(ok)
	assert.Equal(CommandEvent{Sender: testUserWithName(1, "nick_name"), Command: "start"}, event)

	event, ok = eventFromUpdate(botApi.Update{Message: &botApi.Message{
		From: from, Chat: private, Contact: &botApi.Contact{PhoneNumber: "+7000", UserID: 1},
	}})
	assert.True(ok)
	assert.Equal(EventContact, event.Kind())
	assert.Equal("+7000", event.(ContactEvent).Phone)

	event, ok = eventFromUpdate(botApi.Update{CallbackQuery: &botApi.CallbackQuery{
		ID: "q", From: from, Data: "role|parent", Message: &botApi.Message{MessageID: 5, Chat: private},
	}})
	assert.True(ok)
	assert.Equal(CallbackEvent{Sender: testUserWithName(1, "nick_name"), QueryID: "q", MessageID: 5, Data: "role|parent"}, event)

	event, ok = eventFromUpdate(botApi.Update{Message: &botApi.Message{From: from, Chat: private, Text: "hello"}})
	assert.True(ok)
	assert.Equal(EventText, event.Kind())

	_, ok = eventFromUpdate(botApi.Update{Message: &botApi.Message{
		From: from, Chat: &botApi.Chat{ID: -1, Type: "group"}, Text: "hello",
	}})
	assert.False(ok)

	_, ok = eventFromUpdate(botApi.Update{})
	assert.False(ok)
}

func testUserWithName(id int64, username string) Sender {
	return Sender{UserID: id, ChatID: id, Username: username}
}

func Test_Bot_Wait_ShouldReturnAfterDispatchedHandlersFinish(t *testing.T) {
	env := newTestEnv(t)
	b := &Bot{controller: env.controller, done: make(chan struct{})}

	updates := make(chan botApi.Update, 2)
	for _, id := range []int64{31, 32} {
		updates <- botApi.Update{Message: &botApi.Message{
			From: &botApi.User{ID: id}, Chat: &botApi.Chat{ID: id, Type: "private"}, Text: "/start",
			Entities: []botApi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		}}
	}
	close(updates)

	go b.dispatch(context.Background(), updates)
	b.wait()

	assert.Equal(t, []string{textWelcome, textWelcome}, env.api.texts())
}
