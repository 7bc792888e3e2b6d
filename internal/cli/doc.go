// Package cli реализует инструмент командной строки Planner.
//
// CLI — клиентская утилита для взаимодействия с Planner API.
// Работает через HTTP, не импортирует внутренние пакеты сервиса.
//
// Данные выводятся в stdout (таблица или JSON с флагом --json),
// сообщения — в stderr, что позволяет использовать pipe:
//
//	planner session list --json | jq .
//
// Токен передаётся флагом --token или переменной PLANNER_TOKEN.
package cli
