package model

// DefaultQuestionBank returns the built-in question bank used when no bank file is configured.
func DefaultQuestionBank() []Question {
	return []Question{
		{
			ID:                 1,
			Prompt:             "What does HTML stand for?",
			Options:            []string{"Hyper Text Preprocessor", "Hyper Text Markup Language", "Hyper Text Multiple Language", "Hyper Tool Multi Language"},
			CorrectOptionIndex: 1,
		},
		{
			ID:                 2,
			Prompt:             "Which CSS property controls the text size?",
			Options:            []string{"font-style", "text-style", "font-size", "text-size"},
			CorrectOptionIndex: 2,
		},
		{
			ID:                 3,
			Prompt:             "Inside which HTML element do we put the JavaScript?",
			Options:            []string{"<script>", "<javascript>", "<js>", "<scripting>"},
			CorrectOptionIndex: 0,
		},
		{
			ID:                 4,
			Prompt:             "How do you declare a JavaScript variable?",
			Options:            []string{"v carName;", "variable carName;", "var carName;", "constant carName;"},
			CorrectOptionIndex: 2,
		},
		{
			ID:                 5,
			Prompt:             "Which event occurs when the user clicks on an HTML element?",
			Options:            []string{"onmouseclick", "onchange", "onclick", "onmouseover"},
			CorrectOptionIndex: 2,
		},
		{
			ID:                 6,
			Prompt:             "What is the correct syntax for referring to an external script called 'xxx.js'?",
			Options:            []string{"<script href='xxx.js'>", "<script name='xxx.js'>", "<script src='xxx.js'>", "<script file='xxx.js'>"},
			CorrectOptionIndex: 2,
		},
		{
			ID:                 7,
			Prompt:             "Which of the following is NOT a JavaScript data type?",
			Options:            []string{"String", "Boolean", "Float", "Number"},
			CorrectOptionIndex: 2,
		},
		{
			ID:                 8,
			Prompt:             "How do you write 'Hello World' in an alert box?",
			Options:            []string{"msg('Hello World');", "msgBox('Hello World');", "alert('Hello World');", "alertBox('Hello World');"},
			CorrectOptionIndex: 2,
		},
		{
			ID:                 9,
			Prompt:             "How do you create a function in JavaScript?",
			Options:            []string{"function:myFunction()", "function = myFunction()", "function myFunction()", "create myFunction()"},
			CorrectOptionIndex: 2,
		},
		{
			ID:                 10,
			Prompt:             "How does a FOR loop start?",
			Options:            []string{"for (i = 0; i <= 5)", "for (i = 0; i <= 5; i++)", "for i = 1 to 5", "for (i <= 5; i++)"},
			CorrectOptionIndex: 1,
		},
	}
}
