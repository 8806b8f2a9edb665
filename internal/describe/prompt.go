package describe

const imagePrompt = `Please provide a detailed description of this image in a sentence, emphasizing the meaning and context. Focus on capturing the key elements and underlying semantics.`

const summaryPromptPrefix = `Please provide a detailed summary of the following text in a sentence, emphasizing the key points and context.`

const topicPrompt = `Provide the main topic of the following description in a single word or short phrase.`
