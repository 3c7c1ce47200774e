package services

import "strings"

// renderTemplate substitutes {name} placeholders in a profile prompt
// template. Unknown placeholders are left as-is.
func renderTemplate(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Built-in prompts for the steps that have no per-profile template.

const defaultSearchPrompt = "Ниже текст страницы с результатами поиска вакансий. " +
	"Извлеки из него список вакансий строго в виде JSON-массива объектов с полями: " +
	`title, company, companyRating (число), companyReviews, salary, location, description, ` +
	`responsibilities (массив строк), requirements (массив строк), url, ` +
	`contactEmail, contactPhone, contactTelegram, matchAnalysis (пустая строка). ` +
	"Не добавляй вакансии, которых нет на странице. Резюме кандидата: {resume} " +
	"Текст страницы: {markup}"

const rankPrompt = "Ты помогаешь кандидату оценить вакансии. Резюме кандидата: {resume} " +
	"Пожелания: {wishes} Список вакансий в JSON: {jobs} " +
	"Верни строго JSON-массив объектов вида {\"id\": \"...\", \"matchAnalysis\": \"...\"}: " +
	"для каждой подходящей вакансии — краткое объяснение соответствия на русском языке, " +
	"для неподходящих — пустая строка в matchAnalysis."

const emailMatchPrompt = "Ниже письмо от работодателя и список отслеживаемых вакансий " +
	"в формате \"id | должность | компания\". Определи, к какой вакансии относится письмо. " +
	"Ответь строго одним id из списка, либо словом unknown, если уверенности нет. " +
	"Письмо: {email} Вакансии: {jobs}"

const emailStatusPrompt = "Ниже письмо от работодателя по поводу отклика на вакансию. " +
	"Определи, какой новый статус оно означает. Ответь строго одним словом: " +
	"interview (приглашение на собеседование), offer (предложение о работе), " +
	"archive (отказ или закрытие вакансии), tracking (всё остальное). Письмо: {email}"

const postingAlivePrompt = "Ниже текст страницы вакансии. Определи, открыта ли вакансия " +
	"или она закрыта/снята с публикации/в архиве. Ответь строго одним словом: " +
	"open или closed. Текст страницы: {markup}"

const defaultCoverLetterPrompt = "Напиши сопроводительное письмо на русском языке " +
	"для отклика на вакансию. Письмо должно быть кратким, конкретным и опираться " +
	"на опыт из резюме. Резюме: {resume} Вакансия: {job}"

const defaultShortMessagePrompt = "Напиши короткое сообщение работодателю для быстрого " +
	"отклика на вакансию: два-три предложения, без приветствий вроде \"Уважаемые господа\". " +
	"Резюме: {resume} Вакансия: {job}"

const defaultAdaptResumePrompt = "Адаптируй резюме кандидата под вакансию: переставь акценты, " +
	"подчеркни релевантный опыт и навыки, ничего не выдумывай. Верни только текст резюме. " +
	"Резюме: {resume} Вакансия: {job}"
