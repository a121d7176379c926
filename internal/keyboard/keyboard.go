// Package keyboard builds the inline keyboards of the admin panel and the
// channel posts.
package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/model"
)

// Callback data conventions. Id-carrying callbacks append "_<id>".
const (
	CallbackParticipate     = "participate_"      // participate_<giveaway id>
	CallbackCreateGiveaway  = "create_giveaway"
	CallbackViewActive      = "view_active"
	CallbackViewFinished    = "view_finished"
	CallbackFinishedPage    = "finished_page_"    // finished_page_<page>
	CallbackDetails         = "giveaway_details_" // giveaway_details_<id>
	CallbackEditGiveaway    = "edit_giveaway_"    // edit_giveaway_<id>
	CallbackDeleteGiveaway  = "delete_giveaway_"  // delete_giveaway_<id>
	CallbackConfirmDelete   = "confirm_delete_"   // confirm_delete_<id>
	CallbackCancelDelete    = "cancel_delete"
	CallbackEditTitle       = "edit_field_title"
	CallbackEditDescription = "edit_field_description"
	CallbackEditMedia       = "edit_field_media"
	CallbackEditEndTime     = "edit_field_end_time"
	CallbackSelectChannel   = "select_channel_" // select_channel_<chat id>
	CallbackSkipMedia       = "skip_media"
	CallbackConfirmCreate   = "confirm_creation"
	CallbackCancelCreate    = "cancel_creation"
	CallbackMainMenu        = "main_menu"
	CallbackAdminMenu       = "admin_management"
	CallbackAddAdmin        = "add_admin"
	CallbackRemoveAdmin     = "remove_admin"
	CallbackRemoveAdminID   = "remove_admin_" // remove_admin_<user id>
	CallbackChannelMenu     = "channel_management"
	CallbackAddChannel      = "add_channel"
	CallbackRemoveChannel   = "remove_channel"
	CallbackRemoveChannelID = "remove_channel_" // remove_channel_<chat id>
)

// ParseID extracts the trailing id of an id-carrying callback.
func ParseID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// MainMenu builds the admin panel root keyboard.
func MainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🎉 Создать розыгрыш", CallbackCreateGiveaway)),
		markup.Row(
			markup.Data("🟢 Активные", CallbackViewActive),
			markup.Data("🔴 Завершенные", CallbackViewFinished),
		),
		markup.Row(markup.Data("👥 Управление админами", CallbackAdminMenu)),
		markup.Row(markup.Data("📺 Управление каналами", CallbackChannelMenu)),
	)
	return markup
}

// BackToMenu builds a single back-to-main-menu row.
func BackToMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)))
	return markup
}

// Participate builds the channel-post button with the live entry counter.
func Participate(giveawayID int64, count int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(
		fmt.Sprintf("🎯 Участвовать (%d)", count),
		fmt.Sprintf("%s%d", CallbackParticipate, giveawayID),
	)))
	return markup
}

// SkipMedia builds the media step keyboard of the create flow.
func SkipMedia() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("⏭ Пропустить медиа", CallbackSkipMedia)),
		markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)),
	)
	return markup
}

// Channels builds the channel selection keyboard of the create flow.
func Channels(channels []*model.Channel) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(channels)+1)
	for _, ch := range channels {
		rows = append(rows, markup.Row(markup.Data(
			"📺 "+ch.ChannelName,
			fmt.Sprintf("%s%d", CallbackSelectChannel, ch.ChannelID),
		)))
	}
	rows = append(rows, markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)))
	markup.Inline(rows...)
	return markup
}

// ConfirmCreate builds the final confirmation keyboard of the create flow.
func ConfirmCreate() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ Подтвердить", CallbackConfirmCreate),
		markup.Data("❌ Отменить", CallbackCancelCreate),
	))
	return markup
}

// GiveawayList builds the list keyboard for active giveaways.
func GiveawayList(giveaways []*model.Giveaway) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(giveaways)+1)
	for _, g := range giveaways {
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("#%d %s", g.ID, g.Title),
			fmt.Sprintf("%s%d", CallbackDetails, g.ID),
		)))
	}
	rows = append(rows, markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)))
	markup.Inline(rows...)
	return markup
}

// FinishedList builds the paginated list keyboard for finished giveaways.
func FinishedList(giveaways []*model.Giveaway, page, totalPages int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(giveaways)+2)
	for _, g := range giveaways {
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("#%d %s", g.ID, g.Title),
			fmt.Sprintf("%s%d", CallbackDetails, g.ID),
		)))
	}

	if totalPages > 1 {
		var nav []tele.Btn
		if page > 1 {
			nav = append(nav, markup.Data("⬅️", fmt.Sprintf("%s%d", CallbackFinishedPage, page-1)))
		}
		nav = append(nav, markup.Data(fmt.Sprintf("%d/%d", page, totalPages), fmt.Sprintf("%s%d", CallbackFinishedPage, page)))
		if page < totalPages {
			nav = append(nav, markup.Data("➡️", fmt.Sprintf("%s%d", CallbackFinishedPage, page+1)))
		}
		rows = append(rows, markup.Row(nav...))
	}

	rows = append(rows, markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)))
	markup.Inline(rows...)
	return markup
}

// GiveawayDetails builds the details-view keyboard. Editing is offered only
// while the giveaway is active; deletion always.
func GiveawayDetails(g *model.Giveaway) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	if g.IsActive() {
		rows = append(rows, markup.Row(markup.Data(
			"✏️ Редактировать", fmt.Sprintf("%s%d", CallbackEditGiveaway, g.ID),
		)))
	}
	rows = append(rows,
		markup.Row(markup.Data("🗑 Удалить", fmt.Sprintf("%s%d", CallbackDeleteGiveaway, g.ID))),
		markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)),
	)
	markup.Inline(rows...)
	return markup
}

// EditFields builds the edit-field chooser keyboard.
func EditFields() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("📝 Заголовок", CallbackEditTitle),
			markup.Data("📝 Описание", CallbackEditDescription),
		),
		markup.Row(
			markup.Data("🖼 Медиа", CallbackEditMedia),
			markup.Data("⏰ Время окончания", CallbackEditEndTime),
		),
		markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)),
	)
	return markup
}

// ConfirmDelete builds the delete-confirmation keyboard.
func ConfirmDelete(giveawayID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ Да", fmt.Sprintf("%s%d", CallbackConfirmDelete, giveawayID)),
		markup.Data("❌ Нет", CallbackCancelDelete),
	))
	return markup
}

// AdminMenu builds the admin-management keyboard.
func AdminMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("➕ Добавить админа", CallbackAddAdmin),
			markup.Data("➖ Удалить админа", CallbackRemoveAdmin),
		),
		markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)),
	)
	return markup
}

// RemovableAdmins builds the admin-removal chooser. The main admin is not
// offered.
func RemovableAdmins(admins []*model.Admin) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, a := range admins {
		if a.IsMainAdmin {
			continue
		}
		rows = append(rows, markup.Row(markup.Data(
			model.DisplayName(a.Username, a.FirstName),
			fmt.Sprintf("%s%d", CallbackRemoveAdminID, a.UserID),
		)))
	}
	rows = append(rows, markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)))
	markup.Inline(rows...)
	return markup
}

// ChannelMenu builds the channel-management keyboard.
func ChannelMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("➕ Добавить канал", CallbackAddChannel),
			markup.Data("➖ Удалить канал", CallbackRemoveChannel),
		),
		markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)),
	)
	return markup
}

// RemovableChannels builds the channel-removal chooser.
func RemovableChannels(channels []*model.Channel) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(channels)+1)
	for _, ch := range channels {
		rows = append(rows, markup.Row(markup.Data(
			"📺 "+ch.ChannelName,
			fmt.Sprintf("%s%d", CallbackRemoveChannelID, ch.ChannelID),
		)))
	}
	rows = append(rows, markup.Row(markup.Data("🔙 Главное меню", CallbackMainMenu)))
	markup.Inline(rows...)
	return markup
}
