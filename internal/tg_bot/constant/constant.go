// Package constant holds the commands, buttons and fixed texts of the Telegram bot.
package constant

const (
	EMOJI_CHECK_MARK = "\U00002714\U0000FE0F" //✔️
	EMOJI_MEMO       = "\U0001F4DD"           //📝
	EMOJI_FLAG_AZ    = "\U0001F1E6\U0001F1FF" //🇦🇿
	EMOJI_FLAG_RU    = "\U0001F1F7\U0001F1FA" //🇷🇺

	COMMAND_START = "/start"
	COMMAND_MENU  = "/menu"
	COMMAND_AZ    = "/az"
	COMMAND_RU    = "/ru"

	BUTTON_TEXT_TICKET_AZ = EMOJI_MEMO + " Müraciət yarat"
	BUTTON_TEXT_TICKET_RU = EMOJI_MEMO + " Создать обращение"

	MSG_LANGUAGE_AZ = EMOJI_FLAG_AZ + " Cavablar Azərbaycan dilində olacaq " + EMOJI_CHECK_MARK
	MSG_LANGUAGE_RU = EMOJI_FLAG_RU + " Ответы будут на русском языке " + EMOJI_CHECK_MARK

	MSG_ONLY_TEXT_AZ = "Zəhmət olmasa, sualınızı mətn şəklində yazın."
	MSG_ONLY_TEXT_RU = "Пожалуйста, напишите вопрос текстом."

	INLINE_TITLE_AZ = "CityCard dəstək cavabı"
	INLINE_TITLE_RU = "Ответ поддержки CityCard"
)
