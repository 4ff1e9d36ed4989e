package bot

import "github.com/kyokomi/emoji/v2"

var (
	textWelcome = emoji.Sprint(":wave:Привет! Я помогу записаться на занятия и получить полезные материалы.\n\n" +
		"Расскажи, кто ты:")
	textChooseAction  = emoji.Sprint(":dart:Что хочешь сделать?")
	textChooseSubject = emoji.Sprint(":books:Выбери предмет:")
	textChooseClass   = emoji.Sprint(":school:Выбери класс или экзамен:")
	textAskNickname   = emoji.Sprint(":bust_in_silhouette:У тебя не указан username в Telegram. " +
		"Напиши ник, по которому с тобой можно связаться (например, @ivan_petrov):")
	textNicknameEmpty   = "Ник не может быть пустым. Попробуй ещё раз:"
	textNicknameInvalid = "Ник должен начинаться с латинской буквы и содержать от 5 до 32 символов " +
		"(латиница, цифры, подчёркивание). Попробуй ещё раз:"
	textAskPhone         = emoji.Sprint(":telephone_receiver:Поделись номером телефона, нажав кнопку ниже.")
	textSharePhoneButton = emoji.Sprint(":iphone:Отправить номер")
	textForeignContact   = "Это не твой контакт. Пожалуйста, поделись своим номером кнопкой ниже."

	textRegistered       = emoji.Sprint(":white_check_mark:Заявка принята! Мы скоро свяжемся с тобой.")
	textApplicantDone    = emoji.Sprint(":white_check_mark:Заявка принята! Материалы по биохимии доступны по команде /materials.")
	textMaterialsReady   = emoji.Sprint(":white_check_mark:Готово! Сейчас покажу материалы.")
	textSaveFailed       = emoji.Sprint(":warning:Не удалось сохранить заявку. Попробуй ещё раз чуть позже.")
	textInvalidSelection = emoji.Sprint(":no_entry_sign:Этот вариант сейчас недоступен. Выбери из последнего предложенного списка.")
	textNoSession        = emoji.Sprint(":information_source:Сначала нажми /start.")
	textFinishFirst      = emoji.Sprint(":hourglass_flowing_sand:Сначала заверши регистрацию.")
	textRegistrationOver = "Регистрация уже завершена. Материалы доступны по команде /materials."
	textUnknownCommand   = "Неизвестная команда!"
	textCanceled         = emoji.Sprint(":x:Отменено. Чтобы начать заново, нажми /start.")
	textNothingToCancel  = "Нечего отменять."
	textInternalError    = "Внутренняя ошибка!"

	textNoMaterials      = emoji.Sprint(":open_file_folder:По этому предмету материалов пока нет.")
	textMaterialNotFound = emoji.Sprint(":mag:Такой материал не найден.")
	textFileNotFound     = emoji.Sprint(":warning:Файл материала сейчас недоступен. Мы уже разбираемся.")

	textAccessDenied = emoji.Sprint(":no_entry:У вас нет доступа.")
	textNoLeads      = emoji.Sprint(":mailbox_with_no_mail:Пока нет заявок.")
	textLeadsFailed  = "Не удалось загрузить заявки."
)

// Templates are formatted with emoji.Sprintf.
const (
	textTeacherFormat   = ":handshake:Спасибо за интерес! По вопросам сотрудничества напиши %s."
	textSubscribeFormat = ":lock:Материалы по предмету «%s» доступны подписчикам канала %s. Подпишись и попробуй ещё раз."
	textMaterialsFormat = ":books:Материалы по предмету «%s»:"
	textProgressFormat  = ":hourglass_flowing_sand:Готовлю материал... %d%%"
	textDocumentCaption = ":blue_book:%s"
	textLeadsHeader     = ":clipboard:Заявки (%d):"
)
