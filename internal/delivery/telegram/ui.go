package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

type option struct {
	Code  string
	Label string
}

// Cities and inventory types offered by the bot. Codes are part of the
// remote sheet names ("<city>_<type>").
var (
	cityOptions = []option{
		{Code: "kharkiv", Label: "Харьков"},
		{Code: "kremenchuk", Label: "Кременчуг"},
		{Code: "lviv", Label: "Львов"},
	}
	typeOptions = []option{
		{Code: "posuda", Label: "Посуда"},
		{Code: "hoz", Label: "Хозтовары"},
		{Code: "upakovka", Label: "Упаковка"},
	}
)

func findOption(opts []option, code string) (option, bool) {
	for _, o := range opts {
		if o.Code == code {
			return o, true
		}
	}
	return option{}, false
}

func sheetFor(city, kind string) string {
	return city + "_" + kind
}

func cityKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cityOptions))
	for _, c := range cityOptions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(c.Label, "city_"+c.Code)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func clearKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да", "clear_yes"),
			tgbotapi.NewInlineKeyboardButtonData("Нет", "clear_no"),
		),
	)
}

// typeKeyboard lists inventory types; withFinish adds the finish button.
func typeKeyboard(withFinish bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(typeOptions)+1)
	for _, o := range typeOptions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(o.Label, "type_"+o.Code)))
	}
	if withFinish {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Завершить", "finish")))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func nextKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Загрузить следующий тип", "next_type")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Завершить", "finish")),
	)
}
