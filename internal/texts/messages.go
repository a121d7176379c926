// Package texts holds the user-facing messages and post templates of the bot.
package texts

import (
	"fmt"
	"strings"

	"giveaway-bot/internal/model"
)

// General messages.
const (
	AccessDenied   = "❌ У вас нет прав для использования этого бота!"
	UnknownCommand = "❓ Неизвестная команда. Используйте /admin для входа в панель управления."
	ErrorOccurred  = "❌ Произошла ошибка. Попробуйте позже."

	AdminMainMenu = "🎛 <b>Админ-панель</b>\n\nВыберите действие:"

	StartAdmin = "👋 Добро пожаловать, администратор!\n\n" +
		"🎉 Это бот для проведения розыгрышей в Telegram-каналах.\n\n" +
		"🛠 Используйте команду /admin для входа в панель управления."
	StartUser = "👋 Добро пожаловать!\n\n" +
		"🎉 Этот бот проводит розыгрыши в Telegram-каналах.\n\n" +
		"🎯 Чтобы участвовать в розыгрышах, нажимайте кнопку 'Участвовать' под постами розыгрышей в каналах.\n\n" +
		"🏆 Удачи в розыгрышах!"
)

// Create flow messages.
const (
	CreateGiveawayStart = "🎉 <b>Создание нового розыгрыша</b>\n\nВведите заголовок розыгрыша:"
	EnterDescription    = "📝 Введите описание розыгрыша:"
	EnterMedia          = "🖼 Отправьте фото, видео или GIF для розыгрыша\n\n<i>Или нажмите 'Пропустить', если медиа не нужно</i>:"
	EnterWinnerPlaces   = "🏆 Введите количество призовых мест (1-10)\n\n<b>Например:</b>\n• 1 - один победитель\n• 3 - первое, второе и третье места\n• 5 - пять призовых мест"
	ChooseChannel       = "📺 Выберите канал для публикации розыгрыша:"
	EnterEndTime        = "⏰ Введите дату и время окончания розыгрыша\n\n<b>Формат:</b> ДД.ММ.ГГГГ ЧЧ:ММ\n<b>Пример:</b> 25.12.2024 18:00\n\n<i>Время указывается по Москве</i>"
	GiveawayCreated     = "✅ Розыгрыш успешно создан и опубликован!"
	CreationCancelled   = "❌ Создание розыгрыша отменено."
	NoChannels          = "❌ Нет доступных каналов! Сначала добавьте каналы в разделе управления каналами."
	PublishFailed       = "❌ Ошибка при публикации розыгрыша в канале. Проверьте права бота."
	UnsupportedMedia    = "❌ Поддерживаются только фото, видео, GIF и документы"
)

// View / edit / delete messages.
const (
	ActiveGiveaways   = "🟢 <b>Активные розыгрыши:</b>"
	FinishedGiveaways = "🔴 <b>Завершенные розыгрыши:</b>"
	NoGiveaways       = "📭 Розыгрышей не найдено."
	GiveawayNotFound  = "❌ Розыгрыш не найден"

	ChooseFieldToEdit   = "🔧 Что вы хотите изменить?"
	EnterNewTitle       = "📝 Введите новый заголовок:"
	EnterNewDescription = "📝 Введите новое описание:"
	EnterNewMedia       = "🖼 Отправьте новое медиа:"
	EnterNewEndTime     = "⏰ Введите новое время окончания\n\n<b>Формат:</b> ДД.ММ.ГГГГ ЧЧ:ММ:"
	GiveawayUpdated     = "✅ Розыгрыш успешно обновлен!"
	EditUnavailable     = "❌ Редактирование недоступно"

	GiveawayDeleted   = "✅ Розыгрыш удален!"
	DeletionCancelled = "❌ Удаление отменено."
)

// Participation messages.
const (
	ParticipationSuccess = "🎉 Вы успешно участвуете в розыгрыше!"
	AlreadyParticipating = "⚠️ Вы уже участвуете в этом розыгрыше!"
	GiveawayEnded        = "❌ Этот розыгрыш уже завершен!"
)

// Admin management messages.
const (
	AdminManagementMenu  = "👥 <b>Управление администраторами</b>"
	EnterNewAdminID      = "👤 Введите Telegram ID нового администратора:"
	AdminAdded           = "✅ Администратор успешно добавлен!"
	AdminAlreadyExists   = "⚠️ Этот пользователь уже является администратором."
	AdminRemoved         = "✅ Администратор удален!"
	CannotRemoveMain     = "❌ Главного администратора удалить нельзя!"
	ChooseAdminToRemove  = "👤 Выберите администратора для удаления:"
	InvalidUserID        = "❌ Неверный ID пользователя!"
)

// Channel management messages.
const (
	ChannelManagementMenu = "📺 <b>Управление каналами</b>"
	EnterChannelLink      = "🔗 Отправьте ссылку на канал или username канала\n\n<b>Примеры:</b>\n• @channel_name\n• https://t.me/channel_name\n• channel_name\n\n<i>⚠️ Убедитесь, что бот добавлен в канал как администратор!</i>"
	ChannelAlreadyExists  = "⚠️ Этот канал уже добавлен."
	ChannelNotFound       = "❌ Канал не найден или недоступен!"
	NotAChannel           = "❌ Это не канал!"
	BotNotChannelAdmin    = "❌ Бот не является администратором этого канала!"
	ChannelRemoved        = "✅ Канал удален!"
	ChooseChannelToRemove = "📺 Выберите канал для удаления:"
)

// Validation messages.
const (
	InvalidDatetime     = "❌ Неверный формат даты/времени. Используйте формат: ДД.ММ.ГГГГ ЧЧ:ММ"
	DatetimeInPast      = "❌ Указанное время уже прошло!"
	TitleTooLong        = "❌ Заголовок слишком длинный (максимум 255 символов)!"
	DescriptionTooLong  = "❌ Описание слишком длинное (максимум 4000 символов)!"
	InvalidWinnerPlaces = "❌ Количество призовых мест должно быть от 1 до 10!"
)

// GiveawayPost renders the channel post of a giveaway.
func GiveawayPost(title, description string, winnerPlaces int, endTime string) string {
	return fmt.Sprintf(
		"🎉 <b>%s</b>\n\n%s\n\n🏆 <b>Призовых мест:</b> %d\n⏰ <b>Окончание:</b> %s\n\n💡 <i>Нажмите кнопку ниже, чтобы принять участие!</i>",
		title, description, winnerPlaces, endTime,
	)
}

// ConfirmGiveaway renders the create-flow confirmation summary.
func ConfirmGiveaway(title, description string, winnerPlaces int, channel, endTime, media string) string {
	return fmt.Sprintf(
		"✅ <b>Подтверждение создания розыгрыша</b>\n\n<b>Заголовок:</b> %s\n<b>Описание:</b> %s\n<b>Призовых мест:</b> %d\n<b>Канал:</b> %s\n<b>Окончание:</b> %s\n<b>Медиа:</b> %s\n\nВсе верно?",
		title, description, winnerPlaces, channel, endTime, media,
	)
}

// GiveawayDetails renders the admin details view of a giveaway.
func GiveawayDetails(id int64, title, description string, participants int, status, created, endTime string) string {
	return fmt.Sprintf(
		"🎉 <b>Детали розыгрыша</b>\n\n<b>ID:</b> %d\n<b>Заголовок:</b> %s\n<b>Описание:</b> %s\n<b>Участники:</b> %d\n<b>Статус:</b> %s\n<b>Создан:</b> %s\n<b>Окончание:</b> %s",
		id, title, description, participants, status, created, endTime,
	)
}

// ChannelAdded renders the confirmation of a registered channel.
func ChannelAdded(name string) string {
	return fmt.Sprintf("✅ Канал «%s» успешно добавлен!", name)
}

// ConfirmDelete renders the delete-confirmation prompt.
func ConfirmDelete(title string) string {
	return fmt.Sprintf(
		"❌ <b>Подтверждение удаления</b>\n\nВы уверены, что хотите удалить розыгрыш '%s'?\n\n<i>Это действие нельзя отменить!</i>",
		title,
	)
}

// PlaceLabel renders the medal emoji of a winner place.
func PlaceLabel(place int) string {
	switch place {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d️⃣", place)
	}
}

// WinnerAnnouncement renders the channel reply announcing the draw results.
// A single winner gets the short variant without place numbers.
func WinnerAnnouncement(winners []*model.Winner) string {
	lines := make([]string, 0, len(winners))
	for _, w := range winners {
		name := model.DisplayName(w.Username, w.FirstName)
		if len(winners) == 1 {
			lines = append(lines, fmt.Sprintf("🏆 <b>Победитель:</b> %s", name))
		} else {
			lines = append(lines, fmt.Sprintf("%s <b>%d место:</b> %s", PlaceLabel(w.Place), w.Place, name))
		}
	}
	return "🎊 <b>РОЗЫГРЫШ ЗАВЕРШЕН!</b>\n\n" + strings.Join(lines, "\n") + "\n\n🎉 Поздравляем!"
}

// NoParticipantsAnnouncement is the channel reply when nobody joined.
const NoParticipantsAnnouncement = "🎊 <b>РОЗЫГРЫШ ЗАВЕРШЕН!</b>\n\n😔 К сожалению, в розыгрыше не было участников."

// GiveawayListItem renders one row of the admin giveaway list.
func GiveawayListItem(id int64, title, endTime string, participants int) string {
	return fmt.Sprintf("🎯 <b>#%d</b> %s\n📅 %s | 👥 %d", id, title, endTime, participants)
}
